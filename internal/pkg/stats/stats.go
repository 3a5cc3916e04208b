package stats

import (
	"time"

	"github.com/sebastienferry/mongo-batch/internal/pkg/batch"
	"github.com/sebastienferry/mongo-batch/internal/pkg/log"
)

// EngineStats periodically logs a snapshot of the engine counters so a long
// running process leaves a throughput trail without anyone polling the API.
type EngineStats struct {
	engine   *batch.Engine
	interval time.Duration
	done     chan bool
}

func NewEngineStats(engine *batch.Engine, interval time.Duration) *EngineStats {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &EngineStats{
		engine:   engine,
		interval: interval,
		done:     make(chan bool),
	}
}

func (s *EngineStats) StartEngineStats() {

	// Start the engine stats observation
	go func() {
		for {
			select {
			case <-time.After(s.interval):
			case <-s.done:
				return
			}

			m := s.engine.Metrics()
			if m.TotalCalls == 0 {
				continue
			}

			log.InfoWithFields("engine stats", log.Fields{
				"calls":        m.TotalCalls,
				"chunks":       m.TotalChunks,
				"inserted":     m.Inserted,
				"updated":      m.Updated,
				"deleted":      m.Deleted,
				"upserted":     m.Upserted,
				"errors":       m.TotalErrors,
				"average_rate": m.AverageRate,
				"active":       s.engine.ActiveOperationCount(),
			})
		}
	}()
}

func (s *EngineStats) StopEngineStats() {
	s.done <- true
}
