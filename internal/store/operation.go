package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

// EnqueueOperation inserts a new Operation in Pending status. Callers must
// do this inside the same transaction that writes the authoritative row it
// follows up on, so the two are durable together or not at all.
func (q *Queries) EnqueueOperation(ctx context.Context, in Operation) (Operation, error) {
	in.ID = idgen.New()
	if in.Status == "" {
		in.Status = OperationPending
	}
	if in.MaxAttempts == 0 {
		in.MaxAttempts = 10
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO operations (
			id, op_type, resource_type, resource_id, input, status,
			idempotency_key, attempt_count, max_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, now(), now())
		RETURNING `+operationColumns,
		in.ID, in.OpType, in.ResourceType, in.ResourceID, in.Input, in.Status, in.IdempotencyKey, in.MaxAttempts)
	return scanOperation(row)
}

// ClaimNextOperation selects and locks the oldest claimable Operation: one
// that is Pending and due, or Running but stuck past staleHorizon (its
// worker likely crashed). The row is bumped to Running in the same
// statement sequence so two workers never see it as Pending simultaneously.
// Call this inside a transaction.
func (q *Queries) ClaimNextOperation(ctx context.Context, staleHorizonSeconds int) (Operation, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id FROM operations
		WHERE (status = 'Pending' AND (next_retry_at IS NULL OR next_retry_at <= now()))
		   OR (status = 'Running' AND started_at < now() - ($1 || ' seconds')::interval)
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`, staleHorizonSeconds)

	var id idgen.ID
	if err := row.Scan(&id); err != nil {
		return Operation{}, fmt.Errorf("claiming operation: %w", classify(err))
	}

	claimed := q.db.QueryRow(ctx, `
		UPDATE operations
		SET status = 'Running', started_at = now(), attempt_count = attempt_count + 1, updated_at = now()
		WHERE id = $1
		RETURNING `+operationColumns, id)
	return scanOperation(claimed)
}

func (q *Queries) FindOperationByID(ctx context.Context, id idgen.ID) (Operation, error) {
	row := q.db.QueryRow(ctx, `SELECT `+operationColumns+` FROM operations WHERE id = $1`, id)
	return scanOperation(row)
}

func (q *Queries) CompleteOperation(ctx context.Context, id idgen.ID, output []byte) (Operation, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE operations
		SET status = 'Succeeded', output = $2, completed_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'Running'
		RETURNING `+operationColumns, id, output)
	return scanOperation(row)
}

// RetryOperation moves an operation back to Pending with a computed
// next_retry_at, recording the error that caused the retry.
func (q *Queries) RetryOperation(ctx context.Context, id idgen.ID, lastError string, nextRetryAt idgen.Time) (Operation, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE operations
		SET status = 'Pending', last_error = $2, next_retry_at = $3, updated_at = now()
		WHERE id = $1 AND status = 'Running'
		RETURNING `+operationColumns, id, lastError, nextRetryAt)
	return scanOperation(row)
}

// FailOperation moves an operation to its terminal Failed status, either
// because the executor reported a non-retryable error or because retries
// are exhausted.
func (q *Queries) FailOperation(ctx context.Context, id idgen.ID, errorCode, lastError string) (Operation, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE operations
		SET status = 'Failed', error_code = $2, last_error = $3, completed_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'Running'
		RETURNING `+operationColumns, id, errorCode, lastError)
	return scanOperation(row)
}

// CancelOperation moves a non-terminal operation to Cancelled. If the row
// is already terminal this is a no-op: the second argument reports whether
// a row was actually changed.
func (q *Queries) CancelOperation(ctx context.Context, id idgen.ID) (Operation, bool, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE operations
		SET status = 'Cancelled', completed_at = now(), updated_at = now()
		WHERE id = $1 AND status NOT IN ('Succeeded', 'Failed', 'Cancelled')
		RETURNING `+operationColumns, id)

	op, err := scanOperation(row)
	if IsNotFound(err) {
		existing, findErr := q.FindOperationByID(ctx, id)
		return existing, false, findErr
	}
	if err != nil {
		return Operation{}, false, err
	}
	return op, true, nil
}

// ListOperationsByResource returns operations targeting a resource, newest
// first, capped at limit with a keyset cursor on created_at.
func (q *Queries) ListOperationsByResource(ctx context.Context, resourceType string, resourceID idgen.ID, before *idgen.Time, limit int) ([]Operation, error) {
	var rows pgx.Rows
	var err error
	if before != nil {
		rows, err = q.db.Query(ctx, `
			SELECT `+operationColumns+` FROM operations
			WHERE resource_type = $1 AND resource_id = $2 AND created_at < $3
			ORDER BY created_at DESC LIMIT $4`, resourceType, resourceID, *before, limit)
	} else {
		rows, err = q.db.Query(ctx, `
			SELECT `+operationColumns+` FROM operations
			WHERE resource_type = $1 AND resource_id = $2
			ORDER BY created_at DESC LIMIT $3`, resourceType, resourceID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", classify(err))
	}
	defer rows.Close()

	var out []Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

const operationColumns = `
	id, op_type, resource_type, resource_id, input, output, status,
	idempotency_key, attempt_count, max_attempts, last_error, error_code,
	next_retry_at, started_at, completed_at, created_at, updated_at`

func scanOperation(row rowScanner) (Operation, error) {
	var op Operation
	err := row.Scan(
		&op.ID, &op.OpType, &op.ResourceType, &op.ResourceID, &op.Input, &op.Output, &op.Status,
		&op.IdempotencyKey, &op.AttemptCount, &op.MaxAttempts, &op.LastError, &op.ErrorCode,
		&op.NextRetryAt, &op.StartedAt, &op.CompletedAt, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		return Operation{}, fmt.Errorf("scanning operation: %w", classify(err))
	}
	return op, nil
}
