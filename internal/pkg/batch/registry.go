package batch

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// operationRegistry tracks in-flight top-level calls. It is the only state
// shared by concurrent calls and is guarded by a mutex.
type operationRegistry struct {
	mu  sync.Mutex
	ops map[string]time.Time
}

func newOperationRegistry() *operationRegistry {
	return &operationRegistry{
		ops: make(map[string]time.Time),
	}
}

// Add registers a new operation and returns its id. The uuid suffix keeps
// ids unique when two calls on the same collection start in the same
// nanosecond.
func (r *operationRegistry) Add(collection string, kind Kind) string {
	now := time.Now()
	id := fmt.Sprintf("%s:%s:%d:%s", collection, kind, now.UnixNano(), uuid.NewString()[:8])

	r.mu.Lock()
	r.ops[id] = now
	r.mu.Unlock()
	return id
}

func (r *operationRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.ops, id)
	r.mu.Unlock()
}

func (r *operationRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ops)
}
