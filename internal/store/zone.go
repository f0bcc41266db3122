package store

import (
	"context"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

func (q *Queries) CreateZone(ctx context.Context, in Zone) (Zone, error) {
	in.ID = idgen.New()
	row := q.db.QueryRow(ctx, `
		INSERT INTO zones (id, name, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id, name, created_at, updated_at`, in.ID, in.Name)
	return scanZone(row)
}

func (q *Queries) FindZoneByID(ctx context.Context, id idgen.ID) (Zone, error) {
	row := q.db.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM zones WHERE id = $1`, id)
	return scanZone(row)
}

func (q *Queries) ListZones(ctx context.Context) ([]Zone, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, created_at, updated_at FROM zones ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", classify(err))
	}
	defer rows.Close()

	var out []Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

func scanZone(row rowScanner) (Zone, error) {
	var z Zone
	if err := row.Scan(&z.ID, &z.Name, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return Zone{}, fmt.Errorf("scanning zone: %w", classify(err))
	}
	return z, nil
}
