package store

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
)

// Postgres SQLSTATE codes for the constraint classes callers need to
// distinguish.
const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateCheckViolation      = "23514"
)

// ConstraintKind classifies a constraint violation so callers can translate
// it to a domain error (e.g. SlugAlreadyExists) without parsing driver text.
type ConstraintKind int

const (
	ConstraintNone ConstraintKind = iota
	ConstraintUnique
	ConstraintForeignKey
	ConstraintCheck
)

// ClassifyConstraint inspects err for a Postgres constraint violation and
// reports which kind it is, along with the violated constraint name.
func ClassifyConstraint(err error) (kind ConstraintKind, constraintName string) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ConstraintNone, ""
	}
	switch pgErr.Code {
	case sqlStateUniqueViolation:
		return ConstraintUnique, pgErr.ConstraintName
	case sqlStateForeignKeyViolation:
		return ConstraintForeignKey, pgErr.ConstraintName
	case sqlStateCheckViolation:
		return ConstraintCheck, pgErr.ConstraintName
	default:
		return ConstraintNone, ""
	}
}

// classify wraps a raw driver/connection error into the apperr taxonomy.
// Connection loss is left retryable at the caller's discretion — classify
// never hides it behind a terminal apperr.Kind; callers that need
// unique/fk/check translation should call ClassifyConstraint directly at
// the point where they know which domain error applies.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("row")
	}
	if kind, _ := ClassifyConstraint(err); kind != ConstraintNone {
		return apperr.Database(err)
	}
	return apperr.Database(err)
}

// IsNotFound reports whether err denotes a missing row, whether it is the
// raw driver error or the classify-wrapped apperr form every Queries method
// returns.
func IsNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	if appErr, ok := apperr.As(err); ok {
		return appErr.Kind == apperr.KindNotFound
	}
	return false
}
