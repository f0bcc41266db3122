package store

import (
	"context"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

func (q *Queries) CreateUser(ctx context.Context, in User) (User, error) {
	in.ID = idgen.New()
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (id, email, organization_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, email, organization_id, created_at, updated_at`,
		in.ID, in.Email, in.OrganizationID)
	return scanUser(row)
}

func (q *Queries) FindUserByID(ctx context.Context, id idgen.ID) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT id, email, organization_id, created_at, updated_at FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (q *Queries) FindUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT id, email, organization_id, created_at, updated_at FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (q *Queries) ListUsersByOrganization(ctx context.Context, orgID idgen.ID) ([]User, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, email, organization_id, created_at, updated_at
		FROM users WHERE organization_id = $1 ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", classify(err))
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteUser(ctx context.Context, id idgen.ID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", id, classify(err))
	}
	return nil
}

func scanUser(row rowScanner) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.OrganizationID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, fmt.Errorf("scanning user: %w", classify(err))
	}
	return u, nil
}

func (q *Queries) CreateServiceAccount(ctx context.Context, in ServiceAccount) (ServiceAccount, error) {
	in.ID = idgen.New()
	row := q.db.QueryRow(ctx, `
		INSERT INTO service_accounts (id, name, key, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, name, key, created_at, updated_at`, in.ID, in.Name, in.Key)
	return scanServiceAccount(row)
}

func (q *Queries) FindServiceAccountByID(ctx context.Context, id idgen.ID) (ServiceAccount, error) {
	row := q.db.QueryRow(ctx, `SELECT id, name, key, created_at, updated_at FROM service_accounts WHERE id = $1`, id)
	return scanServiceAccount(row)
}

func (q *Queries) FindServiceAccountByKey(ctx context.Context, key string) (ServiceAccount, error) {
	row := q.db.QueryRow(ctx, `SELECT id, name, key, created_at, updated_at FROM service_accounts WHERE key = $1`, key)
	return scanServiceAccount(row)
}

func scanServiceAccount(row rowScanner) (ServiceAccount, error) {
	var s ServiceAccount
	if err := row.Scan(&s.ID, &s.Name, &s.Key, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return ServiceAccount{}, fmt.Errorf("scanning service account: %w", classify(err))
	}
	return s, nil
}

func (q *Queries) CreateInvitation(ctx context.Context, in Invitation) (Invitation, error) {
	in.ID = idgen.New()
	if in.State == "" {
		in.State = InvitationPending
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO invitations (id, organization_id, user_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, organization_id, user_id, state, created_at, updated_at`,
		in.ID, in.OrganizationID, in.UserID, in.State)
	return scanInvitation(row)
}

func (q *Queries) FindInvitationByID(ctx context.Context, id idgen.ID) (Invitation, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, organization_id, user_id, state, created_at, updated_at
		FROM invitations WHERE id = $1`, id)
	return scanInvitation(row)
}

func (q *Queries) ListInvitationsByOrganization(ctx context.Context, orgID idgen.ID) ([]Invitation, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, organization_id, user_id, state, created_at, updated_at
		FROM invitations WHERE organization_id = $1 ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", classify(err))
	}
	defer rows.Close()

	var out []Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateInvitationState(ctx context.Context, id idgen.ID, state InvitationState) (Invitation, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE invitations SET state = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, organization_id, user_id, state, created_at, updated_at`, id, state)
	return scanInvitation(row)
}

func scanInvitation(row rowScanner) (Invitation, error) {
	var inv Invitation
	if err := row.Scan(&inv.ID, &inv.OrganizationID, &inv.UserID, &inv.State, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return Invitation{}, fmt.Errorf("scanning invitation: %w", classify(err))
	}
	return inv, nil
}
