package compute

import (
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestGenerateSSHKeypairProducesMatchingPair(t *testing.T) {
	authorizedKey, privatePEM, err := generateSSHKeypair()
	if err != nil {
		t.Fatalf("generateSSHKeypair: %v", err)
	}
	if !strings.HasPrefix(authorizedKey, "ssh-ed25519 ") {
		t.Fatalf("authorized key has unexpected prefix: %q", authorizedKey)
	}

	signer, err := ssh.ParsePrivateKey([]byte(privatePEM))
	if err != nil {
		t.Fatalf("parsing generated private key: %v", err)
	}

	wantPub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(authorizedKey))
	if err != nil {
		t.Fatalf("parsing generated authorized key: %v", err)
	}
	if string(signer.PublicKey().Marshal()) != string(wantPub.Marshal()) {
		t.Fatalf("private key does not match the authorized public key")
	}
}

func TestGenerateSSHKeypairVaries(t *testing.T) {
	a, _, err := generateSSHKeypair()
	if err != nil {
		t.Fatalf("generateSSHKeypair: %v", err)
	}
	b, _, err := generateSSHKeypair()
	if err != nil {
		t.Fatalf("generateSSHKeypair: %v", err)
	}
	if a == b {
		t.Fatalf("two calls produced the same authorized key")
	}
}

func TestSubnetPrefix(t *testing.T) {
	tests := []struct {
		cidr    string
		want    string
		wantErr bool
	}{
		{cidr: "10.0.0.0/24", want: "24"},
		{cidr: "192.168.1.0/28", want: "28"},
		{cidr: "not-a-cidr", wantErr: true},
	}
	for _, tt := range tests {
		got, err := subnetPrefix(tt.cidr)
		if tt.wantErr {
			if err == nil {
				t.Errorf("subnetPrefix(%q): expected error, got none", tt.cidr)
			}
			continue
		}
		if err != nil {
			t.Errorf("subnetPrefix(%q): unexpected error: %v", tt.cidr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("subnetPrefix(%q) = %q, want %q", tt.cidr, got, tt.want)
		}
	}
}
