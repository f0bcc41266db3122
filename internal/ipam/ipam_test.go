package ipam

import (
	"testing"
)

func TestPoolAddressesExcludesNetworkBroadcastAndGateway(t *testing.T) {
	addrs, err := poolAddresses("10.0.0.0/29", "10.0.0.1")
	if err != nil {
		t.Fatalf("poolAddresses() error = %v", err)
	}
	// /29 has 8 addresses: .0 (network), .1 (gateway), .2-.6 (usable), .7 (broadcast).
	want := []string{"10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5", "10.0.0.6"}
	if len(addrs) != len(want) {
		t.Fatalf("poolAddresses() = %v, want %v", addrs, want)
	}
	for i, addr := range want {
		if addrs[i] != addr {
			t.Errorf("addrs[%d] = %s, want %s", i, addrs[i], addr)
		}
	}
}

func TestPoolAddressesCapsAtIPv4Limit(t *testing.T) {
	addrs, err := poolAddresses("10.0.0.0/16", "10.0.0.1")
	if err != nil {
		t.Fatalf("poolAddresses() error = %v", err)
	}
	if len(addrs) != maxIPv4Pool {
		t.Errorf("len(addrs) = %d, want %d", len(addrs), maxIPv4Pool)
	}
}

func TestPoolAddressesRejectsMalformedCIDR(t *testing.T) {
	if _, err := poolAddresses("not-a-cidr", ""); err == nil {
		t.Fatal("poolAddresses() error = nil, want error for malformed cidr")
	}
}
