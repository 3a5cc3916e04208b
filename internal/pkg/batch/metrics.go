package batch

import (
	"sync"
	"time"
)

// Metrics accumulates lifetime counters across all calls made through one
// engine instance.
type Metrics struct {
	TotalChunks     int64     `json:"total_chunks"`
	TotalCalls      int64     `json:"total_calls"`
	Inserted        int64     `json:"inserted"`
	Updated         int64     `json:"updated"`
	Deleted         int64     `json:"deleted"`
	Upserted        int64     `json:"upserted"`
	TotalErrors     int64     `json:"total_errors"`
	AverageRate     float64   `json:"average_rate"`
	LastOperationAt time.Time `json:"last_operation_at"`
}

// aggregator owns the lifetime counters. Only the engine mutates it, after
// each completed call.
type aggregator struct {
	mu sync.Mutex
	m  Metrics
}

func newAggregator() *aggregator {
	return &aggregator{}
}

func (a *aggregator) record(kind Kind, items, chunks, errs int, rate float64) {

	a.mu.Lock()
	defer a.mu.Unlock()

	a.m.TotalChunks += int64(chunks)
	a.m.TotalCalls++
	a.m.TotalErrors += int64(errs)
	a.m.LastOperationAt = time.Now()

	switch kind {
	case KindInsert:
		a.m.Inserted += int64(items)
	case KindUpdate:
		a.m.Updated += int64(items)
	case KindDelete:
		a.m.Deleted += int64(items)
	case KindUpsert:
		a.m.Upserted += int64(items)
	}

	// Two-point average of successive call rates. Not a true running mean:
	// recent calls weigh more the longer the engine runs.
	if a.m.AverageRate == 0 {
		a.m.AverageRate = rate
	} else {
		a.m.AverageRate = (a.m.AverageRate + rate) / 2
	}
}

// Snapshot returns a copy of the counters.
func (a *aggregator) Snapshot() Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.m
}

// Reset zeroes all counters.
func (a *aggregator) Reset() {
	a.mu.Lock()
	a.m = Metrics{}
	a.mu.Unlock()
}
