// Package ipam pre-fills and allocates a VNet's address pool and hands out
// hypervisor-facing MAC addresses. It sits directly on internal/store's
// row-locked claim/release primitives; every allocating call here must run
// inside the caller's transaction so the FOR UPDATE SKIP LOCKED row lock it
// takes is held until commit.
package ipam

import (
	"context"
	"fmt"
	"net"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// maxIPv4Pool and maxIPv6Pool bound how many Reserved rows PreFillPool
// inserts for a subnet, so a /0-ish IPv6 prefix doesn't try to materialise
// billions of rows.
const (
	maxIPv4Pool = 254
	maxIPv6Pool = 65536
)

// PreFillPool inserts the Reserved address pool and the permanent Gateway
// row for a freshly created VNet. Network/broadcast addresses and the
// gateway itself are excluded from the Reserved set.
func PreFillPool(ctx context.Context, q *store.Queries, vnetID idgen.ID, cidr, gateway string) error {
	addrs, err := poolAddresses(cidr, gateway)
	if err != nil {
		return err
	}
	if err := q.BulkReserveAddresses(ctx, vnetID, addrs); err != nil {
		return err
	}
	_, err = q.CreateGatewayAllocation(ctx, vnetID, gateway)
	return err
}

// poolAddresses enumerates every usable address in cidr other than the
// network address, the broadcast address (IPv4 only), and gateway.
func poolAddresses(cidr, gateway string) ([]string, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, apperr.InvalidCIDR(fmt.Sprintf("parsing %q: %v", cidr, err))
	}

	limit := maxIPv4Pool
	isV4 := ip.To4() != nil
	if !isV4 {
		limit = maxIPv6Pool
	}

	network := ipnet.IP
	var broadcast net.IP
	if isV4 {
		broadcast = lastAddress(ipnet)
	}

	var addrs []string
	cur := cloneIP(network)
	for count := 0; count < limit+2 && ipnet.Contains(cur); count++ {
		addr := cur.String()
		switch {
		case cur.Equal(network):
		case isV4 && cur.Equal(broadcast):
		case addr == gateway:
		default:
			addrs = append(addrs, addr)
			if len(addrs) >= limit {
				return addrs, nil
			}
		}
		incrementIP(cur)
	}
	return addrs, nil
}

func cloneIP(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}

func incrementIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			return
		}
	}
}

func lastAddress(ipnet *net.IPNet) net.IP {
	ip := cloneIP(ipnet.IP.To4())
	mask := ipnet.Mask
	for i := range ip {
		ip[i] |= ^mask[i]
	}
	return ip
}

// AllocateInput describes one address claim against a VNet's pool.
type AllocateInput struct {
	VNetID      idgen.ID
	WantAddress string // empty selects the next free address
	Kind        store.IPAllocationKind
	MAC         *string
	Hostname    *string
}

// Allocate claims one Reserved row from vnetID's pool, flipping it to kind.
// If in.WantAddress is empty the next free address (lowest, ascending) is
// claimed, and apperr.NoAvailableIps is returned when none is left;
// otherwise that specific address must currently be Reserved, or
// apperr.IPNotInRange is returned. Must run inside a
// transaction: the underlying SELECT … FOR UPDATE SKIP LOCKED row lock is
// only meaningful held across the surrounding commit.
func Allocate(ctx context.Context, q *store.Queries, in AllocateInput) (store.IPAllocation, error) {
	alloc, err := q.ClaimNextReservedAddress(ctx, in.VNetID, in.WantAddress, in.Kind, in.MAC, in.Hostname)
	if err != nil {
		if store.IsNotFound(err) {
			if in.WantAddress != "" {
				return store.IPAllocation{}, apperr.IPNotInRange(in.WantAddress)
			}
			return store.IPAllocation{}, apperr.NoAvailableIps()
		}
		return store.IPAllocation{}, err
	}
	return alloc, nil
}

// Release returns an allocation to the Reserved pool.
func Release(ctx context.Context, q *store.Queries, allocationID idgen.ID) error {
	return q.ReleaseAllocation(ctx, allocationID)
}

// ReleaseByInterface cascades a release across every allocation bound to an
// instance interface, used when the owning instance is deleted.
func ReleaseByInterface(ctx context.Context, q *store.Queries, instanceInterfaceID idgen.ID) error {
	return q.ReleaseAllocationsByInterface(ctx, instanceInterfaceID)
}
