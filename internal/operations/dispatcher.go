package operations

import "github.com/France-Nuage/plateforme-sub000/internal/store"

// Dispatcher routes a claimed Operation to the Executor registered for its
// OpType.
type Dispatcher struct {
	executors map[OpType]Executor
}

// NewDispatcher builds a registry from the given executors, keyed by
// Executor.Handles(). Registering two executors for the same OpType panics
// at startup rather than silently shadowing one — that is a wiring bug, not
// a runtime condition.
func NewDispatcher(executors ...Executor) *Dispatcher {
	d := &Dispatcher{executors: make(map[OpType]Executor, len(executors))}
	for _, e := range executors {
		opType := e.Handles()
		if _, exists := d.executors[opType]; exists {
			panic("operations: duplicate executor registered for " + string(opType))
		}
		d.executors[opType] = e
	}
	return d
}

// Lookup returns the executor for an operation's op_type, or nil if none is
// registered — the caller translates that into a NotHandled ExecutorError.
func (d *Dispatcher) Lookup(op store.Operation) Executor {
	return d.executors[OpType(op.OpType)]
}
