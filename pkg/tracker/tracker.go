package tracker

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Tracker counts speech synthesis activity per engine.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*EngineStats
}

// EngineStats holds counters for a single engine.
// Fields are accessed atomically.
type EngineStats struct {
	CacheHits    int64
	CacheMisses  int64
	Syntheses    int64
	Failures     int64
	LatencyNanos int64
}

// AvgLatency is the mean synthesis latency over successful calls.
func (s EngineStats) AvgLatency() time.Duration {
	if s.Syntheses == 0 {
		return 0
	}
	return time.Duration(s.LatencyNanos / s.Syntheses)
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*EngineStats),
	}
}

func (t *Tracker) getStats(engine string) *EngineStats {
	t.mu.RLock()
	s, ok := t.stats[engine]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[engine]; ok {
		return s
	}
	s = &EngineStats{}
	t.stats[engine] = s
	return s
}

// TrackCacheHit records an utterance served from the audio cache.
func (t *Tracker) TrackCacheHit(engine string) {
	atomic.AddInt64(&t.getStats(engine).CacheHits, 1)
}

func (t *Tracker) TrackCacheMiss(engine string) {
	atomic.AddInt64(&t.getStats(engine).CacheMisses, 1)
}

// TrackSynthesis records a successful engine call and its latency.
func (t *Tracker) TrackSynthesis(engine string, took time.Duration) {
	s := t.getStats(engine)
	atomic.AddInt64(&s.Syntheses, 1)
	atomic.AddInt64(&s.LatencyNanos, int64(took))
}

func (t *Tracker) TrackFailure(engine string) {
	atomic.AddInt64(&t.getStats(engine).Failures, 1)
}

// Engines returns the tracked engine names in sorted order.
func (t *Tracker) Engines() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.stats))
	for k := range t.stats {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]EngineStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]EngineStats, len(t.stats))
	for k, v := range t.stats {
		result[k] = EngineStats{
			CacheHits:    atomic.LoadInt64(&v.CacheHits),
			CacheMisses:  atomic.LoadInt64(&v.CacheMisses),
			Syntheses:    atomic.LoadInt64(&v.Syntheses),
			Failures:     atomic.LoadInt64(&v.Failures),
			LatencyNanos: atomic.LoadInt64(&v.LatencyNanos),
		}
	}
	return result
}

// Reset zeroes all counters but keeps known engines.
func (t *Tracker) Reset() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, v := range t.stats {
		atomic.StoreInt64(&v.CacheHits, 0)
		atomic.StoreInt64(&v.CacheMisses, 0)
		atomic.StoreInt64(&v.Syntheses, 0)
		atomic.StoreInt64(&v.Failures, 0)
		atomic.StoreInt64(&v.LatencyNanos, 0)
	}
}
