package store

import (
	"context"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

// NextVXLANTag draws the next value from the strictly monotonic VXLAN tag
// sequence. Backed by a Postgres sequence so concurrent VPC creations never
// collide without an extra row lock.
func (q *Queries) NextVXLANTag(ctx context.Context) (int32, error) {
	var tag int32
	err := q.db.QueryRow(ctx, `SELECT nextval('vxlan_tag_seq')::int`).Scan(&tag)
	if err != nil {
		return 0, fmt.Errorf("drawing vxlan tag: %w", classify(err))
	}
	return tag, nil
}

func (q *Queries) CreateVPC(ctx context.Context, in VPC) (VPC, error) {
	in.ID = idgen.New()
	row := q.db.QueryRow(ctx, `
		INSERT INTO vpcs (id, name, slug, organization_id, region, sdn_zone_id, vxlan_tag, state, mtu, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id, name, slug, organization_id, region, sdn_zone_id, vxlan_tag, state, mtu, created_at, updated_at`,
		in.ID, in.Name, in.Slug, in.OrganizationID, in.Region, in.SDNZoneID, in.VXLANTag, in.State, in.MTU)
	return scanVPC(row)
}

func (q *Queries) FindVPCByID(ctx context.Context, id idgen.ID) (VPC, error) {
	row := q.db.QueryRow(ctx, vpcSelect+` WHERE id = $1`, id)
	return scanVPC(row)
}

func (q *Queries) FindVPCBySlug(ctx context.Context, slug string) (VPC, error) {
	row := q.db.QueryRow(ctx, vpcSelect+` WHERE slug = $1`, slug)
	return scanVPC(row)
}

func (q *Queries) ListVPCsByOrganization(ctx context.Context, orgID idgen.ID) ([]VPC, error) {
	rows, err := q.db.Query(ctx, vpcSelect+` WHERE organization_id = $1 ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing vpcs: %w", classify(err))
	}
	defer rows.Close()

	var out []VPC
	for rows.Next() {
		v, err := scanVPC(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateVPCState(ctx context.Context, id idgen.ID, state VPCState) (VPC, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE vpcs SET state = $2, updated_at = now() WHERE id = $1
		RETURNING id, name, slug, organization_id, region, sdn_zone_id, vxlan_tag, state, mtu, created_at, updated_at`,
		id, state)
	return scanVPC(row)
}

func (q *Queries) DeleteVPC(ctx context.Context, id idgen.ID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM vpcs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting vpc %s: %w", id, classify(err))
	}
	return nil
}

// CountVNetsByVPC supports the VpcHasVnets guard on deletion.
func (q *Queries) CountVNetsByVPC(ctx context.Context, vpcID idgen.ID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM vnets WHERE vpc_id = $1`, vpcID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting vnets: %w", classify(err))
	}
	return n, nil
}

const vpcSelect = `
	SELECT id, name, slug, organization_id, region, sdn_zone_id, vxlan_tag, state, mtu, created_at, updated_at
	FROM vpcs`

func scanVPC(row rowScanner) (VPC, error) {
	var v VPC
	err := row.Scan(&v.ID, &v.Name, &v.Slug, &v.OrganizationID, &v.Region, &v.SDNZoneID, &v.VXLANTag, &v.State, &v.MTU, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return VPC{}, fmt.Errorf("scanning vpc: %w", classify(err))
	}
	return v, nil
}
