package api

import (
	"net/http"
	"runtime"
	"sync"

	"hablago/pkg/tracker"
)

// SessionCounter reports live quiz sessions.
type SessionCounter interface {
	Len() int
}

type StatsHandler struct {
	tracker  *tracker.Tracker
	sessions SessionCounter
	mu       sync.Mutex
	maxMem   uint64
}

func NewStatsHandler(t *tracker.Tracker, sessions SessionCounter) *StatsHandler {
	return &StatsHandler{
		tracker:  t,
		sessions: sessions,
	}
}

type EngineStatsDTO struct {
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	Syntheses    int64 `json:"syntheses"`
	Failures     int64 `json:"failures"`
	HitRate      int64 `json:"hit_rate"`
	AvgLatencyMS int64 `json:"avg_latency_ms"`
}

type ServerStats struct {
	MemoryMB    uint64 `json:"memory_mb"`
	MemoryMaxMB uint64 `json:"memory_max_mb"`
	Goroutines  int    `json:"goroutines"`
}

type QuizStats struct {
	ActiveSessions int `json:"active_sessions"`
}

type StatsResponse struct {
	Server ServerStats               `json:"server"`
	Quiz   QuizStats                 `json:"quiz"`
	Speech map[string]EngineStatsDTO `json:"speech"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Server: h.serverStats(),
		Speech: make(map[string]EngineStatsDTO),
	}
	if h.sessions != nil {
		resp.Quiz.ActiveSessions = h.sessions.Len()
	}

	if h.tracker != nil {
		for engine, stats := range h.tracker.Snapshot() {
			totalCache := stats.CacheHits + stats.CacheMisses
			hitRate := int64(0)
			if totalCache > 0 {
				hitRate = (stats.CacheHits * 100) / totalCache
			}
			resp.Speech[engine] = EngineStatsDTO{
				CacheHits:    stats.CacheHits,
				CacheMisses:  stats.CacheMisses,
				Syntheses:    stats.Syntheses,
				Failures:     stats.Failures,
				HitRate:      hitRate,
				AvgLatencyMS: stats.AvgLatency().Milliseconds(),
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StatsHandler) serverStats() ServerStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	h.mu.Lock()
	if ms.Sys > h.maxMem {
		h.maxMem = ms.Sys
	}
	maxMem := h.maxMem
	h.mu.Unlock()

	return ServerStats{
		MemoryMB:    bToMb(ms.Sys),
		MemoryMaxMB: bToMb(maxMem),
		Goroutines:  runtime.NumGoroutine(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
