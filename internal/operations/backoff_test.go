package operations

import (
	"math/rand"
	"testing"
	"time"
)

func TestProfileDelay(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name    string
		profile Profile
		attempt int32
		minWant time.Duration
		maxWant time.Duration
	}{
		{
			name:    "first attempt uses base",
			profile: ProfileDefault,
			attempt: 1,
			minWant: time.Second,
			maxWant: time.Duration(float64(time.Second) * 1.2),
		},
		{
			name:    "third attempt doubles twice",
			profile: ProfileDefault,
			attempt: 3,
			minWant: 4 * time.Second,
			maxWant: time.Duration(float64(4*time.Second) * 1.2),
		},
		{
			name:    "caps at max regardless of attempt",
			profile: ProfileAggressive,
			attempt: 20,
			minWant: ProfileAggressive.Max,
			maxWant: time.Duration(float64(ProfileAggressive.Max) * 1.2),
		},
		{
			name:    "attempt below one treated as one",
			profile: ProfileDefault,
			attempt: 0,
			minWant: time.Second,
			maxWant: time.Duration(float64(time.Second) * 1.2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.profile.Delay(tt.attempt, rng)
			if got < tt.minWant || got > tt.maxWant {
				t.Errorf("Delay(%d) = %v, want between %v and %v", tt.attempt, got, tt.minWant, tt.maxWant)
			}
		})
	}
}

func TestProfileForOpType(t *testing.T) {
	tests := []struct {
		opType OpType
		want   Profile
	}{
		{OpAuthzWriteRel, ProfileAggressive},
		{OpAuthzDeleteRel, ProfileAggressive},
		{OpVpnInviteUser, ProfileRelaxed},
		{OpBastionCreateAgent, ProfileDefault},
	}

	for _, tt := range tests {
		t.Run(string(tt.opType), func(t *testing.T) {
			if got := profileForOpType(tt.opType); got != tt.want {
				t.Errorf("profileForOpType(%s) = %v, want %v", tt.opType, got, tt.want)
			}
		})
	}
}
