package batch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sebastienferry/mongo-batch/internal/pkg/interfaces"
	"github.com/sebastienferry/mongo-batch/internal/pkg/log"
)

// State of the engine lifecycle.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDraining
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Engine drives bulk insert, update, delete and upsert calls against a
// backend, in fixed-size chunks with bounded linear-backoff retries. One
// engine owns its metrics and its set of in-flight operations; the
// composition root decides how many engines exist.
type Engine struct {
	backend  interfaces.Backend
	defaults Defaults

	state   atomic.Int32
	active  *operationRegistry
	metrics *aggregator

	// Indirection over time.Sleep so tests control retry timing.
	sleep func(context.Context, time.Duration)
}

// NewEngine builds an engine around the given backend. The engine is
// uninitialized until Initialize succeeds.
func NewEngine(backend interfaces.Backend, defaults Defaults) *Engine {
	return &Engine{
		backend:  backend,
		defaults: defaults.sane(),
		active:   newOperationRegistry(),
		metrics:  newAggregator(),
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Initialize probes the backend and moves the engine to ready. A failed
// probe is fatal: the engine stays uninitialized and no batch call can
// run. Calling Initialize on a ready engine is a no-op.
func (e *Engine) Initialize(ctx context.Context) error {

	if e.State() == StateReady {
		return nil
	}
	if !e.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		return ErrNotReady
	}

	if err := e.backend.Probe(ctx); err != nil {
		e.state.CompareAndSwap(int32(StateInitializing), int32(StateUninitialized))
		log.Error("backend probe failed: ", err)
		return &ConnectivityError{Err: err}
	}

	// A shutdown may have raced the probe; never resurrect a terminated
	// engine.
	if !e.state.CompareAndSwap(int32(StateInitializing), int32(StateReady)) {
		return ErrNotReady
	}
	log.Info("batch engine ready")
	return nil
}

// Shutdown drains in-flight operations, polling the registry up to the
// configured timeout, then terminates. Operations still active when the
// timeout expires are logged and abandoned, not interrupted. Calling
// Shutdown on a terminated engine is a no-op.
func (e *Engine) Shutdown(ctx context.Context) error {

	if e.State() == StateTerminated {
		return nil
	}
	if !e.state.CompareAndSwap(int32(StateReady), int32(StateDraining)) {
		// Never made it to ready. Nothing can be in flight.
		e.state.Store(int32(StateTerminated))
		return nil
	}
	defer e.state.Store(int32(StateTerminated))

	deadline := time.Now().Add(e.defaults.DrainTimeout)
	for e.active.Count() > 0 {
		if time.Now().After(deadline) {
			log.WarnWithFields("drain timeout, terminating anyway", log.Fields{
				"active": e.active.Count(),
			})
			return ErrDrainTimeout
		}
		e.sleep(ctx, e.defaults.DrainPoll)
	}

	log.Info("batch engine terminated")
	return nil
}

// Health is the report returned by HealthCheck.
type Health struct {
	Healthy          bool      `json:"healthy"`
	Error            string    `json:"error,omitempty"`
	State            string    `json:"state"`
	ActiveOperations int       `json:"active_operations"`
	Metrics          Metrics   `json:"metrics"`
	Timestamp        time.Time `json:"timestamp"`
}

// HealthCheck re-runs the connectivity probe and reports the engine state.
// It never fails and never mutates state.
func (e *Engine) HealthCheck(ctx context.Context) Health {

	health := Health{
		Healthy:          true,
		State:            e.State().String(),
		ActiveOperations: e.active.Count(),
		Metrics:          e.metrics.Snapshot(),
		Timestamp:        time.Now(),
	}

	if err := e.backend.Probe(ctx); err != nil {
		health.Healthy = false
		health.Error = err.Error()
	}
	return health
}

// Metrics returns a snapshot of the lifetime counters.
func (e *Engine) Metrics() Metrics {
	return e.metrics.Snapshot()
}

// ResetMetrics zeroes the lifetime counters.
func (e *Engine) ResetMetrics() {
	e.metrics.Reset()
}

// ActiveOperationCount reports the number of in-flight top-level calls.
func (e *Engine) ActiveOperationCount() int {
	return e.active.Count()
}
