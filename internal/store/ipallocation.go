package store

import (
	"context"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

// BulkReserveAddresses inserts the pre-filled address pool for a VNet: every
// address in the CIDR except network/broadcast and the gateway is inserted
// as a Reserved row up front.
func (q *Queries) BulkReserveAddresses(ctx context.Context, vnetID idgen.ID, addresses []string) error {
	for _, addr := range addresses {
		_, err := q.db.Exec(ctx, `
			INSERT INTO ip_allocations (id, vnet_id, address, kind, created_at, updated_at)
			VALUES ($1, $2, $3, 'Reserved', now(), now())`, idgen.New(), vnetID, addr)
		if err != nil {
			return fmt.Errorf("reserving address %s: %w", addr, classify(err))
		}
	}
	return nil
}

// CreateGatewayAllocation inserts the permanent Gateway row for a VNet. It
// is never released.
func (q *Queries) CreateGatewayAllocation(ctx context.Context, vnetID idgen.ID, address string) (IPAllocation, error) {
	id := idgen.New()
	row := q.db.QueryRow(ctx, `
		INSERT INTO ip_allocations (id, vnet_id, address, kind, allocated_at, created_at, updated_at)
		VALUES ($1, $2, $3, 'Gateway', now(), now(), now())
		RETURNING `+ipAllocationColumns, id, vnetID, address)
	return scanIPAllocation(row)
}

// ClaimNextReservedAddress performs the row-locked "next free address"
// reservation: select one Reserved row (optionally a specific address) FOR
// UPDATE SKIP LOCKED, then flip it to in-use. Callers must invoke this
// inside a transaction so the lock is held until commit.
func (q *Queries) ClaimNextReservedAddress(ctx context.Context, vnetID idgen.ID, wantAddress string, kind IPAllocationKind, mac *string, hostname *string) (IPAllocation, error) {
	var row rowScanner
	if wantAddress != "" {
		row = q.db.QueryRow(ctx, `
			SELECT id FROM ip_allocations
			WHERE vnet_id = $1 AND address = $2 AND kind = 'Reserved'
			FOR UPDATE SKIP LOCKED`, vnetID, wantAddress)
	} else {
		row = q.db.QueryRow(ctx, `
			SELECT id FROM ip_allocations
			WHERE vnet_id = $1 AND kind = 'Reserved'
			ORDER BY address ASC LIMIT 1 FOR UPDATE SKIP LOCKED`, vnetID)
	}

	var id idgen.ID
	if err := row.Scan(&id); err != nil {
		return IPAllocation{}, fmt.Errorf("claiming reserved address: %w", classify(err))
	}

	claimed := q.db.QueryRow(ctx, `
		UPDATE ip_allocations
		SET kind = $2, mac_address = $3, hostname = $4, allocated_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+ipAllocationColumns, id, kind, mac, hostname)
	return scanIPAllocation(claimed)
}

// ReleaseAllocation resets an allocation back to Reserved.
func (q *Queries) ReleaseAllocation(ctx context.Context, id idgen.ID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE ip_allocations
		SET kind = 'Reserved', mac_address = NULL, instance_interface_id = NULL,
		    hostname = NULL, released_at = now(), updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("releasing allocation %s: %w", id, classify(err))
	}
	return nil
}

// ReleaseAllocationsByInterface cascades a release when an instance is
// deleted.
func (q *Queries) ReleaseAllocationsByInterface(ctx context.Context, instanceInterfaceID idgen.ID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE ip_allocations
		SET kind = 'Reserved', mac_address = NULL, instance_interface_id = NULL,
		    hostname = NULL, released_at = now(), updated_at = now()
		WHERE instance_interface_id = $1`, instanceInterfaceID)
	if err != nil {
		return fmt.Errorf("releasing allocations for interface %s: %w", instanceInterfaceID, classify(err))
	}
	return nil
}

func (q *Queries) FindAllocationByID(ctx context.Context, id idgen.ID) (IPAllocation, error) {
	row := q.db.QueryRow(ctx, `SELECT `+ipAllocationColumns+` FROM ip_allocations WHERE id = $1`, id)
	return scanIPAllocation(row)
}

// FindAllocationByAddress looks up the in-use allocation backing address,
// used to release an instance's address on teardown when only the address
// itself (not the allocation id) survived onto the Instance row.
func (q *Queries) FindAllocationByAddress(ctx context.Context, address string) (IPAllocation, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+ipAllocationColumns+` FROM ip_allocations
		WHERE address = $1 AND kind != 'Reserved' LIMIT 1`, address)
	return scanIPAllocation(row)
}

// ExistsMAC reports whether mac is already assigned to any allocation. MAC
// addresses are unique across the whole deployment, not just per VNet.
func (q *Queries) ExistsMAC(ctx context.Context, mac string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT exists(SELECT 1 FROM ip_allocations WHERE mac_address = $1)`, mac).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking mac uniqueness: %w", classify(err))
	}
	return exists, nil
}

const ipAllocationColumns = `id, vnet_id, address, mac_address, instance_interface_id, kind, hostname, allocated_at, released_at, created_at, updated_at`

func scanIPAllocation(row rowScanner) (IPAllocation, error) {
	var a IPAllocation
	err := row.Scan(&a.ID, &a.VNetID, &a.Address, &a.MACAddress, &a.InstanceInterfaceID, &a.Kind, &a.Hostname, &a.AllocatedAt, &a.ReleasedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return IPAllocation{}, fmt.Errorf("scanning ip allocation: %w", classify(err))
	}
	return a, nil
}
