package batch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sebastienferry/mongo-batch/internal/pkg/log"
	"github.com/sebastienferry/mongo-batch/internal/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

// operation describes one batch call to the shared executor. The attempt
// closure resolves one chunk, retries included, and returns the item errors
// of that chunk.
type operation struct {
	collection string
	kind       Kind
	total      int
	attempt    func(ctx context.Context, lo, hi int) []ItemError
}

// BatchInsert writes items to the collection in chunks, in input order.
func (e *Engine) BatchInsert(ctx context.Context, collection string, items []bson.D, opts Options) (*Result, error) {

	opts = opts.withDefaults(KindInsert, e.defaults)
	return e.run(ctx, operation{
		collection: collection,
		kind:       KindInsert,
		total:      len(items),
		attempt: func(ctx context.Context, lo, hi int) []ItemError {
			return e.attemptChunk(ctx, KindInsert, lo, opts, documents(items[lo:hi]),
				func(ctx context.Context) error {
					return e.backend.Insert(ctx, collection, items[lo:hi])
				})
		},
	}, opts)
}

// BatchUpdate applies the patches in chunks. Rows address distinct keys, so
// items of one chunk are dispatched concurrently, each with its own retry
// loop. There is no ordering guarantee inside a chunk.
func (e *Engine) BatchUpdate(ctx context.Context, collection string, updates []Update, opts Options) (*Result, error) {

	opts = opts.withDefaults(KindUpdate, e.defaults)
	return e.run(ctx, operation{
		collection: collection,
		kind:       KindUpdate,
		total:      len(updates),
		attempt: func(ctx context.Context, lo, hi int) []ItemError {
			return e.attemptUpdateChunk(ctx, collection, lo, updates[lo:hi], opts)
		},
	}, opts)
}

// BatchDelete removes the rows addressed by keys, in chunks, in input order.
func (e *Engine) BatchDelete(ctx context.Context, collection string, keys []interface{}, opts Options) (*Result, error) {

	opts = opts.withDefaults(KindDelete, e.defaults)
	return e.run(ctx, operation{
		collection: collection,
		kind:       KindDelete,
		total:      len(keys),
		attempt: func(ctx context.Context, lo, hi int) []ItemError {
			return e.attemptChunk(ctx, KindDelete, lo, opts, keys[lo:hi],
				func(ctx context.Context) error {
					return e.backend.Delete(ctx, collection, keys[lo:hi])
				})
		},
	}, opts)
}

// BatchUpsert writes items in chunks, resolving conflicts on
// opts.ConflictKey, in input order.
func (e *Engine) BatchUpsert(ctx context.Context, collection string, items []bson.D, opts Options) (*Result, error) {

	opts = opts.withDefaults(KindUpsert, e.defaults)
	return e.run(ctx, operation{
		collection: collection,
		kind:       KindUpsert,
		total:      len(items),
		attempt: func(ctx context.Context, lo, hi int) []ItemError {
			return e.attemptChunk(ctx, KindUpsert, lo, opts, documents(items[lo:hi]),
				func(ctx context.Context) error {
					return e.backend.Upsert(ctx, collection, items[lo:hi], opts.ConflictKey)
				})
		},
	}, opts)
}

// run drives all chunks of one operation: registers the operation id,
// resolves chunks in order, reports progress, and records metrics on every
// exit path. It returns a partial Result together with the chunk error when
// the call aborts on ContinueOnError=false.
func (e *Engine) run(ctx context.Context, op operation, opts Options) (*Result, error) {

	if e.State() != StateReady {
		return nil, ErrNotReady
	}

	id := e.active.Add(op.collection, op.kind)
	defer e.active.Remove(id)

	metrics.ActiveOperations.Inc()
	defer metrics.ActiveOperations.Dec()

	started := time.Now()
	result := &Result{}
	chunks := 0

	var limiter *rateLimit
	if opts.MaxRate > 0 {
		limiter = newRateLimit(opts.MaxRate)
	}

	var abort error
	for lo := 0; lo < op.total; lo += opts.ChunkSize {

		hi := min(lo+opts.ChunkSize, op.total)
		itemErrs := op.attempt(ctx, lo, hi)
		chunks++

		result.Successful += (hi - lo) - len(itemErrs)
		result.Failed += len(itemErrs)
		result.Errors = append(result.Errors, itemErrs...)

		if opts.OnError != nil {
			for _, itemErr := range itemErrs {
				opts.OnError(itemErr)
			}
		}

		if opts.OnProgress != nil {
			opts.OnProgress(snapshotProgress(started,
				result.Successful+result.Failed, op.total, result.Successful, result.Failed))
		}

		if len(itemErrs) > 0 && !opts.ContinueOnError {
			abort = itemErrs[0].Err
			break
		}

		// No throttle after the final chunk: there is nothing left to pace.
		if limiter != nil && hi < op.total {
			limiter.Incr(hi - lo)
			e.sleep(ctx, limiter.Delay())
		}
	}

	result.Duration = time.Since(started)

	var rate float64
	if secs := result.Duration.Seconds(); secs > 0 {
		rate = float64(result.Successful+result.Failed) / secs
	}
	e.metrics.record(op.kind, op.total, chunks, len(result.Errors), rate)

	metrics.ChunksTotal.WithLabelValues(op.collection, string(op.kind)).Add(float64(chunks))
	metrics.ItemsTotal.WithLabelValues(op.collection, string(op.kind)).Add(float64(result.Successful))
	metrics.ErrorsTotal.WithLabelValues(op.collection, string(op.kind)).Add(float64(result.Failed))

	log.InfoWithFields("batch call finished", log.Fields{
		"collection": op.collection,
		"kind":       op.kind,
		"successful": result.Successful,
		"failed":     result.Failed,
		"chunks":     chunks,
		"duration":   result.Duration,
	})

	if abort != nil {
		return result, abort
	}
	return result, nil
}

// attemptChunk retries a whole chunk. On exhaustion every item of the chunk
// becomes one ItemError sharing the same underlying ChunkError.
func (e *Engine) attemptChunk(ctx context.Context, kind Kind, lo int, opts Options,
	items []interface{}, call func(context.Context) error) []ItemError {

	err := e.withRetry(ctx, opts, call)
	if err == nil {
		return nil
	}

	cause := &ChunkError{
		Kind:     kind,
		Chunk:    lo / opts.ChunkSize,
		Attempts: opts.RetryAttempts,
		Err:      err,
	}
	log.ErrorWithFields("chunk exhausted retries", log.Fields{
		"kind":     kind,
		"chunk":    cause.Chunk,
		"attempts": cause.Attempts,
		"error":    err,
	})

	itemErrs := make([]ItemError, 0, len(items))
	for i, item := range items {
		itemErrs = append(itemErrs, ItemError{Item: item, Index: lo + i, Err: cause})
	}
	return itemErrs
}

// attemptUpdateChunk fans the rows of one chunk out to the backend
// concurrently, each with its own retry loop, and joins before returning.
func (e *Engine) attemptUpdateChunk(ctx context.Context, collection string, lo int,
	updates []Update, opts Options) []ItemError {

	var mu sync.Mutex
	var itemErrs []ItemError

	var group errgroup.Group
	for i, update := range updates {
		i, update := i, update
		group.Go(func() error {
			err := e.withRetry(ctx, opts, func(ctx context.Context) error {
				return e.backend.Update(ctx, collection, update.Key, update.Patch)
			})
			if err != nil {
				mu.Lock()
				itemErrs = append(itemErrs, ItemError{Item: update, Index: lo + i, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	// The goroutines never return an error: per-item failures are collected
	// above so the whole chunk always joins.
	_ = group.Wait()

	sort.Slice(itemErrs, func(a, b int) bool {
		return itemErrs[a].Index < itemErrs[b].Index
	})
	return itemErrs
}

// withRetry runs call up to RetryAttempts times, waiting RetryDelay * k
// between attempt k and k+1.
func (e *Engine) withRetry(ctx context.Context, opts Options, call func(context.Context) error) error {

	var err error
	for attempt := 1; attempt <= opts.RetryAttempts; attempt++ {
		if err = call(ctx); err == nil {
			return nil
		}
		if attempt < opts.RetryAttempts {
			e.sleep(ctx, opts.RetryDelay*time.Duration(attempt))
		}
	}
	return err
}

// documents widens a bson.D slice so chunk items can be recorded in
// ItemError values.
func documents(items []bson.D) []interface{} {
	widened := make([]interface{}, len(items))
	for i := range items {
		widened[i] = items[i]
	}
	return widened
}
