package store

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifyConstraint(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ConstraintKind
		wantName string
	}{
		{
			name:     "not a pg error",
			err:      errors.New("boom"),
			wantKind: ConstraintNone,
		},
		{
			name:     "unique violation",
			err:      &pgconn.PgError{Code: "23505", ConstraintName: "vpcs_slug_key"},
			wantKind: ConstraintUnique,
			wantName: "vpcs_slug_key",
		},
		{
			name:     "foreign key violation",
			err:      &pgconn.PgError{Code: "23503", ConstraintName: "instances_hypervisor_id_fkey"},
			wantKind: ConstraintForeignKey,
			wantName: "instances_hypervisor_id_fkey",
		},
		{
			name:     "check violation",
			err:      &pgconn.PgError{Code: "23514", ConstraintName: "security_rules_port_range"},
			wantKind: ConstraintCheck,
			wantName: "security_rules_port_range",
		},
		{
			name:     "unrelated pg error code",
			err:      &pgconn.PgError{Code: "40001"},
			wantKind: ConstraintNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, name := ClassifyConstraint(tt.err)
			if kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", kind, tt.wantKind)
			}
			if name != tt.wantName {
				t.Errorf("constraint name = %q, want %q", name, tt.wantName)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "raw pgx.ErrNoRows", err: pgx.ErrNoRows, want: true},
		{name: "classified not-found error", err: classify(pgx.ErrNoRows), want: true},
		{name: "classified constraint error", err: classify(&pgconn.PgError{Code: "23505"}), want: false},
		{name: "unrelated error", err: errors.New("boom"), want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
