package batch

import "time"

// rateLimit throttles a call to a maximum number of items per second by
// measuring the call-local rate after each chunk.
type rateLimit struct {
	start   time.Time
	maxRate float64
	hits    int
}

func newRateLimit(maxRate float64) *rateLimit {
	return &rateLimit{
		start:   time.Now(),
		maxRate: maxRate,
	}
}

func (r *rateLimit) Incr(incr int) {
	r.hits += incr
}

// Delay returns how long the caller must wait to bring the observed rate
// back under the cap. Zero when already under.
func (r *rateLimit) Delay() time.Duration {

	elapsed := time.Since(r.start)
	if elapsed <= 0 || r.maxRate <= 0 {
		return 0
	}

	current := float64(r.hits) / elapsed.Seconds()
	if current <= r.maxRate {
		return 0
	}

	// Time the hits should have taken at the cap, minus the time they took.
	target := time.Duration(float64(r.hits) / r.maxRate * float64(time.Second))
	return target - elapsed
}
