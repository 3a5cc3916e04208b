package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady guards batch calls made before Initialize succeeded or
	// after Shutdown started.
	ErrNotReady = errors.New("engine is not ready")

	// ErrDrainTimeout is returned by Shutdown when the bounded wait expired
	// with operations still active. The engine terminates anyway.
	ErrDrainTimeout = errors.New("drain timed out with operations still active")
)

// ConnectivityError reports a failed backend probe at Initialize. It is
// fatal: the engine never reaches the ready state.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("backend connectivity check failed: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ChunkError reports a chunk that exhausted its retries. Every item of the
// chunk carries the same ChunkError in its ItemError.
type ChunkError struct {
	Kind     Kind
	Chunk    int
	Attempts int
	Err      error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%s chunk %d failed after %d attempts: %v", e.Kind, e.Chunk, e.Attempts, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
