package store

import (
	"context"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

func (q *Queries) CreateHypervisor(ctx context.Context, in Hypervisor) (Hypervisor, error) {
	in.ID = idgen.New()
	row := q.db.QueryRow(ctx, `
		INSERT INTO hypervisors (id, zone_id, organization_id, url, auth_token, storage_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, zone_id, organization_id, url, auth_token, storage_name, created_at, updated_at`,
		in.ID, in.ZoneID, in.OrganizationID, in.URL, in.AuthToken, in.StorageName)
	return scanHypervisor(row)
}

func (q *Queries) FindHypervisorByID(ctx context.Context, id idgen.ID) (Hypervisor, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, zone_id, organization_id, url, auth_token, storage_name, created_at, updated_at
		FROM hypervisors WHERE id = $1`, id)
	return scanHypervisor(row)
}

func (q *Queries) ListHypervisorsByOrganization(ctx context.Context, orgID idgen.ID) ([]Hypervisor, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, zone_id, organization_id, url, auth_token, storage_name, created_at, updated_at
		FROM hypervisors WHERE organization_id = $1 ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing hypervisors: %w", classify(err))
	}
	defer rows.Close()

	var out []Hypervisor
	for rows.Next() {
		h, err := scanHypervisor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListHypervisors returns every hypervisor across every organization, for
// background workers (the metrics poller, the state machine) that operate
// cluster-wide rather than scoped to a single tenant.
func (q *Queries) ListHypervisors(ctx context.Context) ([]Hypervisor, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, zone_id, organization_id, url, auth_token, storage_name, created_at, updated_at
		FROM hypervisors ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing hypervisors: %w", classify(err))
	}
	defer rows.Close()

	var out []Hypervisor
	for rows.Next() {
		h, err := scanHypervisor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteHypervisor(ctx context.Context, id idgen.ID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM hypervisors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting hypervisor %s: %w", id, classify(err))
	}
	return nil
}

func scanHypervisor(row rowScanner) (Hypervisor, error) {
	var h Hypervisor
	if err := row.Scan(&h.ID, &h.ZoneID, &h.OrganizationID, &h.URL, &h.AuthToken, &h.StorageName, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return Hypervisor{}, fmt.Errorf("scanning hypervisor: %w", classify(err))
	}
	return h, nil
}
