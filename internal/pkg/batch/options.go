package batch

import (
	"time"

	"github.com/sebastienferry/mongo-batch/internal/pkg/config"
)

// Kind identifies one of the four bulk operations the engine drives.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
	KindUpsert Kind = "upsert"
)

// Options configures a single batch call. A zero value picks up the engine
// defaults. Options are not mutated by the engine.
type Options struct {

	// Max items per backend call. Updates address rows individually and
	// default to a smaller chunk.
	ChunkSize int

	// Bound on attempts per chunk (insert, delete, upsert) or per item
	// (update).
	RetryAttempts int

	// Base unit for the linear backoff: the wait before attempt k+1 is
	// RetryDelay * k.
	RetryDelay time.Duration

	// When true, an exhausted chunk or item is recorded and processing
	// moves on to the next chunk. When false, the call returns after the
	// first exhausted chunk or item.
	ContinueOnError bool

	// Invoked after each resolved chunk.
	OnProgress func(Progress)

	// Invoked once per failed item.
	OnError func(ItemError)

	// Field used by the backend for conflict resolution. Upsert only.
	ConflictKey string

	// Cap on the call-local throughput in items per second. Zero disables
	// throttling.
	MaxRate float64
}

// Defaults holds the engine-level fallbacks applied to zero-valued Options.
type Defaults struct {
	ChunkSize       int
	UpdateChunkSize int
	RetryAttempts   int
	RetryDelay      time.Duration
	DrainTimeout    time.Duration
	DrainPoll       time.Duration
}

// DefaultsFromConfig maps the application configuration to engine defaults.
func DefaultsFromConfig(c *config.AppConfig) Defaults {
	return Defaults{
		ChunkSize:       c.Batch.ChunkSize,
		UpdateChunkSize: c.Batch.UpdateChunkSize,
		RetryAttempts:   c.Batch.RetryAttempts,
		RetryDelay:      time.Duration(c.Batch.RetryDelayMs) * time.Millisecond,
		DrainTimeout:    time.Duration(c.Batch.DrainTimeoutSec) * time.Second,
		DrainPoll:       time.Duration(c.Batch.DrainPollMs) * time.Millisecond,
	}
}

func (d Defaults) sane() Defaults {
	if d.ChunkSize <= 0 {
		d.ChunkSize = 500
	}
	if d.UpdateChunkSize <= 0 {
		d.UpdateChunkSize = 50
	}
	if d.RetryAttempts <= 0 {
		d.RetryAttempts = 3
	}
	if d.RetryDelay <= 0 {
		d.RetryDelay = time.Second
	}
	if d.DrainTimeout <= 0 {
		d.DrainTimeout = 30 * time.Second
	}
	if d.DrainPoll <= 0 {
		d.DrainPoll = 500 * time.Millisecond
	}
	return d
}

// withDefaults resolves the zero-valued knobs against the engine defaults
// for the given operation kind.
func (o Options) withDefaults(kind Kind, d Defaults) Options {
	if o.ChunkSize <= 0 {
		if kind == KindUpdate {
			o.ChunkSize = d.UpdateChunkSize
		} else {
			o.ChunkSize = d.ChunkSize
		}
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = d.RetryAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = d.RetryDelay
	}
	return o
}
