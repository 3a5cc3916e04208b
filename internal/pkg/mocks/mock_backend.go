package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Call records one invocation against the mock backend.
type Call struct {
	Kind        string
	Collection  string
	Size        int
	ConflictKey string
}

// MockBackend is a scriptable in-memory backend. FailFirst makes the first
// N calls fail, AlwaysFail makes every call fail, Delay holds each call
// open for the given duration.
type MockBackend struct {
	mu sync.Mutex

	Calls      []Call
	FailFirst  int
	AlwaysFail bool
	Err        error
	Delay      time.Duration
	ProbeErr   error
	ProbeFunc  func(context.Context) error

	failed int
}

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (m *MockBackend) record(kind, collection, conflictKey string, size int) error {

	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, Call{
		Kind:        kind,
		Collection:  collection,
		Size:        size,
		ConflictKey: conflictKey,
	})

	if m.AlwaysFail || m.failed < m.FailFirst {
		m.failed++
		if m.Err != nil {
			return m.Err
		}
		return errors.New("backend failure")
	}
	return nil
}

func (m *MockBackend) Insert(ctx context.Context, collection string, items []bson.D) error {
	return m.record("insert", collection, "", len(items))
}

func (m *MockBackend) Update(ctx context.Context, collection string, key interface{}, patch bson.D) error {
	return m.record("update", collection, "", 1)
}

func (m *MockBackend) Delete(ctx context.Context, collection string, keys []interface{}) error {
	return m.record("delete", collection, "", len(keys))
}

func (m *MockBackend) Upsert(ctx context.Context, collection string, items []bson.D, conflictKey string) error {
	return m.record("upsert", collection, conflictKey, len(items))
}

func (m *MockBackend) Probe(ctx context.Context) error {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx)
	}
	return m.ProbeErr
}

// CallCount returns the number of calls of the given kind. An empty kind
// counts everything.
func (m *MockBackend) CallCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, call := range m.Calls {
		if kind == "" || call.Kind == kind {
			count++
		}
	}
	return count
}

// ChunkSizes returns the sizes of the recorded calls of the given kind, in
// call order.
func (m *MockBackend) ChunkSizes(kind string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sizes []int
	for _, call := range m.Calls {
		if call.Kind == kind {
			sizes = append(sizes, call.Size)
		}
	}
	return sizes
}
