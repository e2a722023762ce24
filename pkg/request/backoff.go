package request

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// HostBackoff tracks exponential cool-downs per host after failed fetches.
type HostBackoff struct {
	mu        sync.RWMutex
	hosts     map[string]*backoffState
	baseDelay time.Duration
	maxDelay  time.Duration
}

type backoffState struct {
	failureCount int
	nextAllowed  time.Time
}

// NewHostBackoff creates a backoff tracker.
func NewHostBackoff(baseDelay, maxDelay time.Duration) *HostBackoff {
	return &HostBackoff{
		hosts:     make(map[string]*backoffState),
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
	}
}

// Wait blocks until host may be contacted again or ctx ends.
func (b *HostBackoff) Wait(ctx context.Context, host string) error {
	_, next := b.State(host)
	d := time.Until(next)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordFailure extends the cool-down for host.
func (b *HostBackoff) RecordFailure(host string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.hosts[host]
	if !ok {
		state = &backoffState{}
		b.hosts[host] = state
	}
	state.failureCount++
	state.nextAllowed = time.Now().Add(b.delay(state.failureCount))
}

// RecordSuccess steps the failure count down by one.
func (b *HostBackoff) RecordSuccess(host string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.hosts[host]
	if !ok {
		return
	}
	if state.failureCount > 0 {
		state.failureCount--
	}
	if state.failureCount == 0 {
		delete(b.hosts, host)
	}
}

// delay is baseDelay * 2^(failures-1), capped at maxDelay, plus up to 10% jitter.
func (b *HostBackoff) delay(failures int) time.Duration {
	d := time.Duration(float64(b.baseDelay) * math.Pow(2, float64(failures-1)))
	if d > b.maxDelay {
		d = b.maxDelay
	}
	return d + time.Duration(rand.Float64()*0.1*float64(d))
}

// State returns the failure count and the earliest next attempt for host.
func (b *HostBackoff) State(host string) (failureCount int, nextAllowed time.Time) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if state, ok := b.hosts[host]; ok {
		return state.failureCount, state.nextAllowed
	}
	return 0, time.Time{}
}
