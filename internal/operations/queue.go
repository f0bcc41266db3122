package operations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// Channel is the Postgres notification channel producers and workers share.
const Channel = "operations"

// Enqueue inserts a Pending operation and notifies waiting workers. Callers
// pass the transaction itself (a pgx.Tx satisfies store.DBTX) so the insert commits
// atomically with whatever authoritative row it follows up on; db must be
// the same tx the caller is about to commit.
func Enqueue(ctx context.Context, db store.DBTX, opType OpType, resourceType string, resourceID idgen.ID, input any, idempotencyKey *string) (store.Operation, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return store.Operation{}, fmt.Errorf("marshaling operation input: %w", err)
	}

	q := store.New(db)
	op, err := q.EnqueueOperation(ctx, store.Operation{
		OpType:         string(opType),
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Input:          payload,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return store.Operation{}, fmt.Errorf("enqueueing %s operation: %w", opType, err)
	}

	if err := store.Notify(ctx, db, Channel, ""); err != nil {
		return store.Operation{}, fmt.Errorf("notifying operation workers: %w", err)
	}
	return op, nil
}

// Cancel moves a non-terminal operation to Cancelled. A Running
// cancellation is advisory: the executor in flight may still complete, but
// its result update is a no-op once the row is terminal (the UPDATE ...
// WHERE status = 'Running' guards in store.CompleteOperation/RetryOperation/
// FailOperation never match a Cancelled row).
func Cancel(ctx context.Context, q *store.Queries, id idgen.ID) (store.Operation, bool, error) {
	return q.CancelOperation(ctx, id)
}
