package progressbus

import (
	"sync"
	"time"
)

// Throttle decides whether a progress update is worth emitting, so a tight
// read loop (64 KiB fetch chunks, yt-dlp stdout lines) doesn't flood the
// bus. An update is allowed once either enough time has passed since the
// last emission or progress has advanced by at least minDelta; the first
// call and any value reaching 1.0 always pass through.
type Throttle struct {
	mu          sync.Mutex
	minInterval time.Duration
	minDelta    float64
	lastEmit    time.Time
	lastValue   float64
	emitted     bool
}

// NewThrottle returns a Throttle gating on minInterval elapsed time or
// minDelta progress movement, whichever comes first.
func NewThrottle(minInterval time.Duration, minDelta float64) *Throttle {
	return &Throttle{minInterval: minInterval, minDelta: minDelta}
}

// Allow reports whether progress should be emitted right now, given the
// wall-clock time now. It records the emission when it returns true.
func (t *Throttle) Allow(now time.Time, progress float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.emitted {
		t.emitted = true
		t.lastEmit = now
		t.lastValue = progress
		return true
	}

	if progress >= 1 {
		t.lastEmit = now
		t.lastValue = progress
		return true
	}

	elapsed := now.Sub(t.lastEmit)
	delta := progress - t.lastValue
	if delta < 0 {
		delta = -delta
	}

	if elapsed >= t.minInterval || delta >= t.minDelta {
		t.lastEmit = now
		t.lastValue = progress
		return true
	}
	return false
}

// Reset clears the throttle state so the next Allow call always passes.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitted = false
	t.lastEmit = time.Time{}
	t.lastValue = 0
}
