package store

import (
	"context"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

// CreateOrganization inserts a new Organization. Timestamps are set here,
// by the persistence layer, not by callers.
func (q *Queries) CreateOrganization(ctx context.Context, in Organization) (Organization, error) {
	in.ID = idgen.New()
	row := q.db.QueryRow(ctx, `
		INSERT INTO organizations (id, name, slug, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, name, slug, parent_id, created_at, updated_at`,
		in.ID, in.Name, in.Slug, in.ParentID)
	return scanOrganization(row)
}

func (q *Queries) FindOrganizationByID(ctx context.Context, id idgen.ID) (Organization, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, name, slug, parent_id, created_at, updated_at
		FROM organizations WHERE id = $1`, id)
	return scanOrganization(row)
}

func (q *Queries) FindOrganizationBySlug(ctx context.Context, slug string) (Organization, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, name, slug, parent_id, created_at, updated_at
		FROM organizations WHERE slug = $1`, slug)
	return scanOrganization(row)
}

func (q *Queries) ListOrganizations(ctx context.Context, limit, offset int32) ([]Organization, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, slug, parent_id, created_at, updated_at
		FROM organizations ORDER BY created_at ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", classify(err))
	}
	defer rows.Close()

	var out []Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateOrganization(ctx context.Context, in Organization) (Organization, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE organizations SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, slug, parent_id, created_at, updated_at`, in.ID, in.Name)
	return scanOrganization(row)
}

func (q *Queries) DeleteOrganization(ctx context.Context, id idgen.ID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting organization %s: %w", id, classify(err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (Organization, error) {
	var o Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.ParentID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Organization{}, fmt.Errorf("scanning organization: %w", classify(err))
	}
	return o, nil
}
