package store

import (
	"context"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

func (q *Queries) CreateProject(ctx context.Context, in Project) (Project, error) {
	in.ID = idgen.New()
	row := q.db.QueryRow(ctx, `
		INSERT INTO projects (id, name, organization_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, name, organization_id, created_at, updated_at`,
		in.ID, in.Name, in.OrganizationID)
	return scanProject(row)
}

func (q *Queries) FindProjectByID(ctx context.Context, id idgen.ID) (Project, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, name, organization_id, created_at, updated_at
		FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

func (q *Queries) ListProjectsByOrganization(ctx context.Context, orgID idgen.ID) ([]Project, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, organization_id, created_at, updated_at
		FROM projects WHERE organization_id = $1 ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", classify(err))
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteProject(ctx context.Context, id idgen.ID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, classify(err))
	}
	return nil
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	if err := row.Scan(&p.ID, &p.Name, &p.OrganizationID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Project{}, fmt.Errorf("scanning project: %w", classify(err))
	}
	return p, nil
}
