package extract

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between external model calls by
// tracking the timestamp of the last call and sleeping the delta. The state
// is process-wide; the mutex keeps it correct if the hosting system ever
// parallelizes invocations. Clock and sleep are injectable for tests.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Wait blocks until at least the configured interval has passed since the
// previous call, then records the new call time.
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !r.last.IsZero() {
		if wait := r.interval - now.Sub(r.last); wait > 0 {
			r.sleep(wait)
			now = now.Add(wait)
		}
	}
	r.last = now
}
