package quiz

import (
	"sync"
	"time"

	"hablago/pkg/logging"
)

// Timer runs at most one pending delayed transition.
// Scheduling or cancelling bumps a generation so a firing that raced a
// cancel can be recognized and dropped.
type Timer struct {
	mu  sync.Mutex
	t   *time.Timer
	gen uint64
}

// Schedule cancels any pending callback and runs fn after d.
// It returns the generation fn must present to Fire.
func (t *Timer) Schedule(d time.Duration, fn func()) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	t.t = time.AfterFunc(d, fn)
	return t.gen
}

// Fire claims the pending callback for gen. It returns false when gen was
// cancelled or superseded.
func (t *Timer) Fire(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen || t.t == nil {
		logging.TraceDefault("Quiz: dropping stale timer", "gen", gen, "current", t.gen)
		return false
	}
	t.t = nil
	return true
}

// Cancel drops any pending callback.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
}

// Pending reports whether a callback is scheduled and not yet claimed.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.t != nil
}

func (t *Timer) stopLocked() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}
