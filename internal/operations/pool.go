package operations

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
	"github.com/France-Nuage/plateforme-sub000/internal/telemetry"
)

// Pool runs a fixed number of workers that claim and execute operations.
// Each worker listens for the operations notification channel and also
// polls on a fixed interval, so it wakes promptly under load but never
// blocks forever if a notification is missed (e.g. a connection churn
// between the NOTIFY and the LISTEN being (re)established).
type Pool struct {
	st           *store.Store
	dispatcher   *Dispatcher
	logger       *slog.Logger
	workerCount  int
	pollInterval time.Duration
	staleHorizon time.Duration
}

// NewPool builds a worker pool over st, dispatching claimed operations
// through dispatcher.
func NewPool(st *store.Store, dispatcher *Dispatcher, logger *slog.Logger, workerCount int, pollInterval, staleHorizon time.Duration) *Pool {
	return &Pool{
		st:           st,
		dispatcher:   dispatcher,
		logger:       logger,
		workerCount:  workerCount,
		pollInterval: pollInterval,
		staleHorizon: staleHorizon,
	}
}

// Run starts the pool and blocks until ctx is cancelled. On cancellation it
// stops claiming new rows and waits for in-flight executors to return
// before returning itself.
func (p *Pool) Run(ctx context.Context) error {
	notifyCh, cancelListen, err := p.st.Listen(ctx, Channel)
	if err != nil {
		p.logger.Warn("operations pool: LISTEN unavailable, falling back to polling only", "error", err)
		notifyCh = make(chan string)
	} else {
		defer cancelListen()
	}

	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.runWorker(ctx, workerID, notifyCh)
		}(i)
	}

	wg.Wait()
	return nil
}

func (p *Pool) runWorker(ctx context.Context, workerID int, notifyCh <-chan string) {
	rng := rand.New(rand.NewSource(int64(workerID) + time.Now().UnixNano()))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-notifyCh:
		case <-ticker.C:
		}

		// Drain every claimable row before waiting on the next wake signal,
		// so a burst of enqueues does not sit behind the poll interval.
		for p.claimAndExecuteOne(ctx, rng) {
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// claimAndExecuteOne claims and runs a single operation. It reports whether
// a row was claimed at all, so the caller can keep draining the queue.
func (p *Pool) claimAndExecuteOne(ctx context.Context, rng *rand.Rand) bool {
	var op store.Operation
	var claimed bool

	err := p.st.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		q := store.New(tx)
		var err error
		op, err = q.ClaimNextOperation(ctx, int(p.staleHorizon.Seconds()))
		if store.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		p.logger.Error("operations pool: claim failed", "error", err)
		return false
	}
	if !claimed {
		return false
	}

	telemetry.OperationsClaimedTotal.WithLabelValues(op.OpType).Inc()

	p.execute(ctx, op, rng)
	return true
}

func (p *Pool) execute(ctx context.Context, op store.Operation, rng *rand.Rand) {
	started := time.Now()
	executor := p.dispatcher.Lookup(op)

	var output json.RawMessage
	var execErr *ExecutorError
	if executor == nil {
		execErr = NewExecutorError(ErrNotHandled, "no executor registered for op_type "+op.OpType)
	} else {
		output, execErr = executor.Execute(ctx, op)
	}

	telemetry.OperationExecuteDuration.WithLabelValues(op.OpType).Observe(time.Since(started).Seconds())

	q := store.New(p.st.Pool)
	switch {
	case execErr == nil:
		if _, err := q.CompleteOperation(ctx, op.ID, output); err != nil && !store.IsNotFound(err) {
			p.logger.Error("operations pool: completing operation", "operation_id", op.ID, "error", err)
		}
		telemetry.OperationsTerminalTotal.WithLabelValues(op.OpType, "succeeded").Inc()

	case execErr.Kind.retryable() && op.AttemptCount < op.MaxAttempts:
		delay := profileForOpType(OpType(op.OpType)).Delay(op.AttemptCount, rng)
		nextRetryAt := idgen.Time(time.Now().Add(delay))
		if _, err := q.RetryOperation(ctx, op.ID, execErr.Message, nextRetryAt); err != nil && !store.IsNotFound(err) {
			p.logger.Error("operations pool: scheduling retry", "operation_id", op.ID, "error", err)
		}

	default:
		code := string(execErr.Kind)
		if execErr.Kind.retryable() {
			code = "EXHAUSTED_RETRIES"
		}
		if _, err := q.FailOperation(ctx, op.ID, code, execErr.Message); err != nil && !store.IsNotFound(err) {
			p.logger.Error("operations pool: failing operation", "operation_id", op.ID, "error", err)
		}
		telemetry.OperationsTerminalTotal.WithLabelValues(op.OpType, "failed").Inc()
	}
}
