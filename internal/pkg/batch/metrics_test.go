package batch

import (
	"context"
	"testing"

	"github.com/sebastienferry/mongo-batch/internal/pkg/mocks"
)

func TestAggregatorRecord(t *testing.T) {

	agg := newAggregator()
	agg.record(KindInsert, 25, 3, 0, 100)

	m := agg.Snapshot()
	if m.TotalCalls != 1 || m.TotalChunks != 3 || m.Inserted != 25 || m.TotalErrors != 0 {
		t.Errorf("snapshot = %+v; want calls=1 chunks=3 inserted=25 errors=0", m)
	}
	// First call seeds the average with its own rate.
	if m.AverageRate != 100 {
		t.Errorf("average rate = %v; want 100", m.AverageRate)
	}
	if m.LastOperationAt.IsZero() {
		t.Error("last operation timestamp not set")
	}

	agg.record(KindDelete, 10, 1, 4, 50)
	m = agg.Snapshot()
	if m.TotalCalls != 2 || m.TotalChunks != 4 || m.Deleted != 10 || m.TotalErrors != 4 {
		t.Errorf("snapshot = %+v; want calls=2 chunks=4 deleted=10 errors=4", m)
	}
	// Two-point average of the successive call rates.
	if m.AverageRate != 75 {
		t.Errorf("average rate = %v; want 75", m.AverageRate)
	}
}

func TestAggregatorKindCounters(t *testing.T) {

	tests := []struct {
		kind Kind
		read func(Metrics) int64
	}{
		{KindInsert, func(m Metrics) int64 { return m.Inserted }},
		{KindUpdate, func(m Metrics) int64 { return m.Updated }},
		{KindDelete, func(m Metrics) int64 { return m.Deleted }},
		{KindUpsert, func(m Metrics) int64 { return m.Upserted }},
	}

	for _, test := range tests {
		agg := newAggregator()
		agg.record(test.kind, 7, 1, 0, 1)
		if got := test.read(agg.Snapshot()); got != 7 {
			t.Errorf("%s counter = %d; want 7", test.kind, got)
		}
	}
}

func TestAggregatorReset(t *testing.T) {

	agg := newAggregator()
	agg.record(KindUpsert, 30, 3, 2, 10)
	agg.Reset()

	if m := agg.Snapshot(); m != (Metrics{}) {
		t.Errorf("snapshot after reset = %+v; want zero value", m)
	}
}

func TestEngineMetricsAcrossCalls(t *testing.T) {

	backend := mocks.NewMockBackend()
	engine := newReadyEngine(t, backend)

	if _, err := engine.BatchInsert(context.Background(), "users", makeDocuments(25), Options{ChunkSize: 10}); err != nil {
		t.Fatalf("BatchInsert() = %v", err)
	}
	if _, err := engine.BatchDelete(context.Background(), "users", makeKeys(10), Options{ChunkSize: 10}); err != nil {
		t.Fatalf("BatchDelete() = %v", err)
	}

	m := engine.Metrics()
	if m.TotalCalls != 2 {
		t.Errorf("total calls = %d; want 2", m.TotalCalls)
	}
	if m.TotalChunks != 4 {
		t.Errorf("total chunks = %d; want 4", m.TotalChunks)
	}
	if m.Inserted != 25 || m.Deleted != 10 {
		t.Errorf("inserted=%d deleted=%d; want 25/10", m.Inserted, m.Deleted)
	}

	engine.ResetMetrics()
	if m := engine.Metrics(); m.TotalCalls != 0 {
		t.Errorf("total calls after reset = %d; want 0", m.TotalCalls)
	}
}
