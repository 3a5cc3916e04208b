package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sebastienferry/mongo-batch/internal/pkg/mocks"
)

func TestInitializeProbeFailure(t *testing.T) {

	backend := mocks.NewMockBackend()
	backend.ProbeErr = errors.New("connection refused")
	engine := NewEngine(backend, testDefaults())

	err := engine.Initialize(context.Background())
	if err == nil {
		t.Fatal("Initialize() = nil; want error")
	}
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Errorf("error type = %T; want *ConnectivityError", err)
	}
	if engine.State() != StateUninitialized {
		t.Errorf("state = %v; want uninitialized", engine.State())
	}

	// A failed probe blocks every batch call.
	_, err = engine.BatchInsert(context.Background(), "users", makeDocuments(5), Options{})
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("BatchInsert() = %v; want ErrNotReady", err)
	}
}

func TestInitializeIdempotent(t *testing.T) {

	engine := newReadyEngine(t, mocks.NewMockBackend())

	if err := engine.Initialize(context.Background()); err != nil {
		t.Errorf("second Initialize() = %v; want nil", err)
	}
	if engine.State() != StateReady {
		t.Errorf("state = %v; want ready", engine.State())
	}
}

func TestActiveOperationCount(t *testing.T) {

	backend := mocks.NewMockBackend()
	backend.Delay = 50 * time.Millisecond
	engine := newReadyEngine(t, backend)

	if count := engine.ActiveOperationCount(); count != 0 {
		t.Errorf("count before call = %d; want 0", count)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.BatchInsert(context.Background(), "users", makeDocuments(5), Options{})
	}()

	// The delayed backend holds the call open.
	deadline := time.After(time.Second)
	for engine.ActiveOperationCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("operation never registered")
		case <-time.After(time.Millisecond):
		}
	}

	<-done
	if count := engine.ActiveOperationCount(); count != 0 {
		t.Errorf("count after call = %d; want 0", count)
	}
}

func TestOperationDeregisteredOnFailure(t *testing.T) {

	backend := mocks.NewMockBackend()
	backend.AlwaysFail = true
	engine := newReadyEngine(t, backend)

	_, err := engine.BatchInsert(context.Background(), "users", makeDocuments(5), Options{})
	if err == nil {
		t.Fatal("BatchInsert() = nil; want error")
	}
	if count := engine.ActiveOperationCount(); count != 0 {
		t.Errorf("count after failed call = %d; want 0", count)
	}
}

func TestShutdownDrains(t *testing.T) {

	backend := mocks.NewMockBackend()
	backend.Delay = 20 * time.Millisecond
	engine := NewEngine(backend, testDefaults())
	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.BatchInsert(context.Background(), "users", makeDocuments(5), Options{})
	}()

	// Let the operation register before draining.
	time.Sleep(5 * time.Millisecond)

	if err := engine.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v; want nil", err)
	}
	if engine.State() != StateTerminated {
		t.Errorf("state = %v; want terminated", engine.State())
	}
	<-done

	_, err := engine.BatchInsert(context.Background(), "users", makeDocuments(5), Options{})
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("BatchInsert() after shutdown = %v; want ErrNotReady", err)
	}
}

func TestShutdownDrainTimeout(t *testing.T) {

	backend := mocks.NewMockBackend()
	backend.Delay = 200 * time.Millisecond

	defaults := testDefaults()
	defaults.DrainTimeout = 10 * time.Millisecond
	defaults.DrainPoll = 2 * time.Millisecond
	engine := NewEngine(backend, defaults)
	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.BatchInsert(context.Background(), "users", makeDocuments(5), Options{})
	}()
	time.Sleep(5 * time.Millisecond)

	err := engine.Shutdown(context.Background())
	if !errors.Is(err, ErrDrainTimeout) {
		t.Errorf("Shutdown() = %v; want ErrDrainTimeout", err)
	}
	if engine.State() != StateTerminated {
		t.Errorf("state = %v; want terminated after timeout", engine.State())
	}
	<-done
}

func TestShutdownDuringInitialize(t *testing.T) {

	backend := mocks.NewMockBackend()
	engine := NewEngine(backend, testDefaults())

	// The shutdown lands while the probe is in flight. The engine must not
	// come up ready afterwards.
	backend.ProbeFunc = func(ctx context.Context) error {
		if err := engine.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() = %v; want nil", err)
		}
		return nil
	}

	err := engine.Initialize(context.Background())
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Initialize() = %v; want ErrNotReady", err)
	}
	if engine.State() != StateTerminated {
		t.Errorf("state = %v; want terminated", engine.State())
	}

	_, err = engine.BatchInsert(context.Background(), "users", makeDocuments(5), Options{})
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("BatchInsert() = %v; want ErrNotReady", err)
	}
}

func TestShutdownIdempotent(t *testing.T) {

	engine := newReadyEngine(t, mocks.NewMockBackend())

	if err := engine.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() = %v; want nil", err)
	}
	if err := engine.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() = %v; want nil", err)
	}
}

func TestHealthCheck(t *testing.T) {

	backend := mocks.NewMockBackend()
	engine := newReadyEngine(t, backend)

	health := engine.HealthCheck(context.Background())
	if !health.Healthy {
		t.Errorf("healthy = false; want true")
	}
	if health.State != "ready" {
		t.Errorf("state = %q; want %q", health.State, "ready")
	}
	if health.ActiveOperations != 0 {
		t.Errorf("active operations = %d; want 0", health.ActiveOperations)
	}
	if health.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	backend.ProbeErr = errors.New("connection refused")
	health = engine.HealthCheck(context.Background())
	if health.Healthy {
		t.Error("healthy = true; want false with failing probe")
	}
	if health.Error == "" {
		t.Error("error detail not set")
	}
	if engine.State() != StateReady {
		t.Errorf("state = %v; HealthCheck must not mutate state", engine.State())
	}
}
