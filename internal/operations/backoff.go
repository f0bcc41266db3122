package operations

import (
	"math"
	"math/rand"
	"time"
)

// Profile names a backoff curve. The queue picks a profile per OpType so
// that, e.g., a VPN invite (slow, human-in-the-loop on the other end) can
// retry more patiently than an authorization write.
type Profile struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

var (
	ProfileDefault    = Profile{Base: time.Second, Max: 300 * time.Second, Jitter: 0.2}
	ProfileAggressive = Profile{Base: time.Second, Max: 60 * time.Second, Jitter: 0.2}
	ProfileRelaxed    = Profile{Base: 5 * time.Second, Max: 600 * time.Second, Jitter: 0.2}
)

// Delay computes the retry delay for the given attempt count (1-indexed:
// the attempt that just failed). Jitter is multiplicative and one-sided —
// without it, every operation that fails in the same tick retries in
// lockstep and re-floods the external backend on the next attempt.
func (p Profile) Delay(attempt int32, rng *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	exp := math.Pow(2, float64(attempt-1))
	base := float64(p.Base) * exp
	capped := math.Min(base, float64(p.Max))

	jitter := 1.0
	if p.Jitter > 0 {
		jitter += rng.Float64() * p.Jitter
	}
	return time.Duration(capped * jitter)
}

// profileForOpType returns the backoff profile an operation type retries
// under. Authorization writes are cheap and idempotent, so they retry
// aggressively; VPN invites depend on a third party mailbox and retry more
// patiently.
func profileForOpType(t OpType) Profile {
	switch t {
	case OpAuthzWriteRel, OpAuthzDeleteRel:
		return ProfileAggressive
	case OpVpnInviteUser, OpVpnRemoveUser, OpVpnUpdateUser:
		return ProfileRelaxed
	default:
		return ProfileDefault
	}
}
