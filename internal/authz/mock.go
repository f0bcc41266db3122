package authz

import (
	"context"
	"sync"
)

// Mock is a Checker that always allows Check and records every Write/Delete
// call so tests can assert on them. It never contacts a real authorization
// server.
type Mock struct {
	mu      sync.Mutex
	Written []Tuple
	Deleted []Tuple
	Lookups map[string][]string // keyed by objectType, empty slice by default
}

// NewMock returns a Mock ready to use; the zero value also works but this
// initializes Lookups so callers can pre-seed deterministic results.
func NewMock() *Mock {
	return &Mock{Lookups: make(map[string][]string)}
}

func (m *Mock) Check(ctx context.Context, subjectType, subjectID, permission, objectType, objectID string) (bool, error) {
	return true, nil
}

func (m *Mock) Lookup(ctx context.Context, subjectType, subjectID, permission, objectType string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Lookups[objectType], nil
}

func (m *Mock) Write(ctx context.Context, t Tuple) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Written = append(m.Written, t)
	return nil
}

func (m *Mock) Delete(ctx context.Context, t Tuple) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, t)
	return nil
}

var _ Checker = (*Mock)(nil)
