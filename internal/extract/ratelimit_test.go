package extract

import (
	"testing"
	"time"
)

func TestRateLimiterWait(t *testing.T) {
	base := time.Unix(1700000000, 0)
	cur := base
	var slept []time.Duration

	rl := NewRateLimiter(time.Second)
	rl.now = func() time.Time { return cur }
	rl.sleep = func(d time.Duration) {
		slept = append(slept, d)
		cur = cur.Add(d)
	}

	// First call never sleeps.
	rl.Wait()
	if len(slept) != 0 {
		t.Fatalf("first Wait slept %v, want no sleep", slept)
	}

	// Immediate second call sleeps out the full interval.
	rl.Wait()
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("second Wait slept %v, want [1s]", slept)
	}

	// A call after the interval has already passed does not sleep.
	cur = cur.Add(2500 * time.Millisecond)
	rl.Wait()
	if len(slept) != 1 {
		t.Fatalf("third Wait slept %v, want no additional sleep", slept[1:])
	}

	// Partial elapsed time sleeps only the remainder.
	cur = cur.Add(300 * time.Millisecond)
	rl.Wait()
	if len(slept) != 2 || slept[1] != 700*time.Millisecond {
		t.Fatalf("fourth Wait slept %v, want remainder of 700ms", slept)
	}
}
