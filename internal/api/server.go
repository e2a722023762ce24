package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"hablago/pkg/version"
)

// NewServer creates and configures the HTTP server.
// Nil handlers leave their endpoints unregistered; shutdown is invoked by POST /api/shutdown.
func NewServer(addr, staticDir string, counterH *CounterHandler, quizH *QuizHandler, speechH *SpeechHandler, stats *StatsHandler, metrics http.Handler, shutdown func()) (*http.Server, error) {
	mux := http.NewServeMux()

	// 1. Health and version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Visitor counter
	if counterH != nil {
		mux.HandleFunc("GET /api/visitor-count", counterH.HandleVisitorCount)
	}

	// 3. Quiz sessions
	if quizH != nil {
		mux.HandleFunc("POST /api/quiz/sessions", quizH.HandleCreate)
		mux.HandleFunc("GET /api/quiz/sessions/{id}", quizH.HandleGet)
		mux.HandleFunc("DELETE /api/quiz/sessions/{id}", quizH.HandleDelete)
		mux.HandleFunc("POST /api/quiz/sessions/{id}/answer", quizH.HandleAnswer)
		mux.HandleFunc("POST /api/quiz/sessions/{id}/next", quizH.HandleNext)
		mux.HandleFunc("POST /api/quiz/sessions/{id}/restart", quizH.HandleRestart)
		mux.HandleFunc("GET /api/quiz/results", quizH.HandleResults)
	}

	// 4. Speech
	if speechH != nil {
		mux.HandleFunc("GET /api/speech", speechH.HandleSpeak)
		mux.HandleFunc("GET /api/speech/voices", speechH.HandleVoices)
		mux.HandleFunc("GET /api/speech/settings", speechH.HandleGetSettings)
		mux.HandleFunc("POST /api/speech/settings", speechH.HandleSettings)
	}

	// 5. Diagnostics
	if stats != nil {
		mux.Handle("GET /api/stats", stats)
	}
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.HandleFunc("GET /api/log/recent", handleRecentLogs)

	// 6. Shutdown
	if shutdown != nil {
		mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
			slog.Info("Graceful shutdown initiated via API")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("Shutting down...")); err != nil {
				slog.Error("Failed to write shutdown response", "error", err)
			}
			// Let the response flush first.
			go func() {
				time.Sleep(100 * time.Millisecond)
				shutdown()
			}()
		})
	}

	// Unknown API paths must not fall through to the client.
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	// 7. Static client (SPA)
	static, err := newStaticHandler(staticDir)
	if err != nil {
		return nil, err
	}
	mux.Handle("/", static)

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

// LoggingMiddleware records every request to the request log.
func LoggingMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("Request Processed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
