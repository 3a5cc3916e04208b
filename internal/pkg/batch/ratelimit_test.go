package batch

import (
	"testing"
	"time"
)

func TestRateLimitOverCap(t *testing.T) {

	limiter := newRateLimit(1)
	limiter.Incr(100)

	// 100 items in well under a second at a cap of 1/s: a wait is due.
	if delay := limiter.Delay(); delay <= 0 {
		t.Errorf("delay = %v; want > 0", delay)
	}
}

func TestRateLimitUnderCap(t *testing.T) {

	limiter := newRateLimit(1e12)
	limiter.Incr(10)
	time.Sleep(time.Millisecond)

	if delay := limiter.Delay(); delay != 0 {
		t.Errorf("delay = %v; want 0", delay)
	}
}

func TestRateLimitDisabled(t *testing.T) {

	limiter := newRateLimit(0)
	limiter.Incr(1000)

	if delay := limiter.Delay(); delay != 0 {
		t.Errorf("delay = %v; want 0 when disabled", delay)
	}
}
