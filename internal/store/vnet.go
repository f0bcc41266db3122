package store

import (
	"context"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

func (q *Queries) CreateVNet(ctx context.Context, in VNet) (VNet, error) {
	in.ID = idgen.New()
	row := q.db.QueryRow(ctx, `
		INSERT INTO vnets (id, vpc_id, name, vnet_bridge_id, subnet, gateway, dhcp_enabled, dns_servers, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id, vpc_id, name, vnet_bridge_id, subnet, gateway, dhcp_enabled, dns_servers, state, created_at, updated_at`,
		in.ID, in.VPCID, in.Name, in.BridgeID, in.Subnet, in.Gateway, in.DHCPEnabled, in.DNSServers, in.State)
	return scanVNet(row)
}

func (q *Queries) FindVNetByID(ctx context.Context, id idgen.ID) (VNet, error) {
	row := q.db.QueryRow(ctx, vnetSelect+` WHERE id = $1`, id)
	return scanVNet(row)
}

func (q *Queries) ListVNetsByVPC(ctx context.Context, vpcID idgen.ID) ([]VNet, error) {
	rows, err := q.db.Query(ctx, vnetSelect+` WHERE vpc_id = $1 ORDER BY created_at ASC`, vpcID)
	if err != nil {
		return nil, fmt.Errorf("listing vnets: %w", classify(err))
	}
	defer rows.Close()

	var out []VNet
	for rows.Next() {
		v, err := scanVNet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateVNetState(ctx context.Context, id idgen.ID, state VNetState) (VNet, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE vnets SET state = $2, updated_at = now() WHERE id = $1
		RETURNING id, vpc_id, name, vnet_bridge_id, subnet, gateway, dhcp_enabled, dns_servers, state, created_at, updated_at`,
		id, state)
	return scanVNet(row)
}

func (q *Queries) DeleteVNet(ctx context.Context, id idgen.ID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM vnets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting vnet %s: %w", id, classify(err))
	}
	return nil
}

// CountInUseAllocationsByVNet supports the VnetHasAddresses deletion guard.
func (q *Queries) CountInUseAllocationsByVNet(ctx context.Context, vnetID idgen.ID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM ip_allocations
		WHERE vnet_id = $1 AND kind != 'Reserved' AND released_at IS NULL`, vnetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting in-use allocations: %w", classify(err))
	}
	return n, nil
}

const vnetSelect = `
	SELECT id, vpc_id, name, vnet_bridge_id, subnet, gateway, dhcp_enabled, dns_servers, state, created_at, updated_at
	FROM vnets`

func scanVNet(row rowScanner) (VNet, error) {
	var v VNet
	err := row.Scan(&v.ID, &v.VPCID, &v.Name, &v.BridgeID, &v.Subnet, &v.Gateway, &v.DHCPEnabled, &v.DNSServers, &v.State, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return VNet{}, fmt.Errorf("scanning vnet: %w", classify(err))
	}
	return v, nil
}
