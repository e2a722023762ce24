package api

import (
	"context"
	"log/slog"
	"net/http"
)

// VisitIncrementer bumps and returns the persisted visitor count.
type VisitIncrementer interface {
	Increment(ctx context.Context) (int64, error)
}

// VisitRecorder is notified of every successful increment.
type VisitRecorder interface {
	RecordVisit()
}

// CounterHandler serves the visitor counter.
type CounterHandler struct {
	counter  VisitIncrementer
	recorder VisitRecorder
}

// NewCounterHandler creates a new CounterHandler. rec may be nil.
func NewCounterHandler(c VisitIncrementer, rec VisitRecorder) *CounterHandler {
	return &CounterHandler{counter: c, recorder: rec}
}

// CountResponse is the visitor counter payload.
type CountResponse struct {
	Count int64 `json:"count"`
}

// HandleVisitorCount handles GET /api/visitor-count.
// Every call counts as a visit.
func (h *CounterHandler) HandleVisitorCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.counter.Increment(r.Context())
	if err != nil {
		slog.Error("Visitor count update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if h.recorder != nil {
		h.recorder.RecordVisit()
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}
