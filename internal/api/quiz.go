package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"hablago/pkg/quiz"
	"hablago/pkg/store"
	"hablago/pkg/vocab"
)

// VocabErrorMessage is shown when the answer key cannot be loaded.
const VocabErrorMessage = "Error loading vocabulary. Please check the CSV file."

// VocabularySource loads the answer key for a new session.
type VocabularySource func(ctx context.Context) ([]vocab.Entry, error)

// QuizRecorder receives quiz events for metrics.
type QuizRecorder interface {
	RecordAnswer(outcome string)
	RecordSessionStarted()
}

// ResultLister reads finished sessions.
type ResultLister interface {
	RecentResults(ctx context.Context, limit int) ([]store.QuizResult, error)
}

// QuizHandler serves the quiz session endpoints.
type QuizHandler struct {
	sessions *quiz.Registry
	load     VocabularySource
	recorder QuizRecorder
	results  ResultLister
}

// NewQuizHandler creates a new QuizHandler. rec and results may be nil.
func NewQuizHandler(reg *quiz.Registry, load VocabularySource, rec QuizRecorder, results ResultLister) *QuizHandler {
	return &QuizHandler{
		sessions: reg,
		load:     load,
		recorder: rec,
		results:  results,
	}
}

// SessionView is the client-facing state of a quiz session.
type SessionView struct {
	ID      string     `json:"id"`
	Phase   string     `json:"phase"`
	Word    string     `json:"word,omitempty"`
	Pending bool       `json:"pending"`
	Stats   quiz.Stats `json:"stats"`
}

// OutcomeView describes the evaluation of a submitted answer.
type OutcomeView struct {
	Kind     string `json:"kind"`
	Word     string `json:"word"`
	Expected string `json:"expected,omitempty"`
	DelayMS  int64  `json:"delay_ms"`
	Last     bool   `json:"last"`
	Message  string `json:"message"`
}

// AnswerRequest is the body of an answer submission.
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// AnswerResponse pairs the outcome with the updated session.
type AnswerResponse struct {
	Outcome OutcomeView `json:"outcome"`
	Session SessionView `json:"session"`
}

func newSessionView(id string, r *quiz.Runner, s quiz.Session) SessionView {
	v := SessionView{
		ID:      id,
		Phase:   s.Phase.String(),
		Pending: r.Pending(),
		Stats:   s.Stats(),
	}
	if s.Phase == quiz.PhasePresenting || s.Phase == quiz.PhaseEvaluating {
		v.Word = s.Current.Source
	}
	return v
}

func newOutcomeView(out quiz.Outcome) OutcomeView {
	v := OutcomeView{
		Kind:    out.Kind.String(),
		Word:    out.Entry.Source,
		DelayMS: out.Delay.Milliseconds(),
		Last:    out.Last,
		Message: quiz.Feedback(out),
	}
	if out.Kind == quiz.OutcomeIncorrect {
		v.Expected = out.Expected
	}
	return v
}

// HandleCreate handles POST /api/quiz/sessions.
func (h *QuizHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	entries, err := h.load(r.Context())
	if err != nil {
		slog.Error("Quiz: failed to load vocabulary", "error", err)
		writeError(w, http.StatusInternalServerError, VocabErrorMessage)
		return
	}

	id, runner := h.sessions.Create(entries)
	if h.recorder != nil {
		h.recorder.RecordSessionStarted()
	}
	slog.Debug("Quiz: session created", "id", id, "words", len(entries))
	writeJSON(w, http.StatusCreated, newSessionView(id, runner, runner.Snapshot()))
}

// HandleGet handles GET /api/quiz/sessions/{id}.
func (h *QuizHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, runner, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(id, runner, runner.Snapshot()))
}

// HandleAnswer handles POST /api/quiz/sessions/{id}/answer.
func (h *QuizHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	id, runner, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, out := runner.Submit(req.Answer)
	switch out.Kind {
	case quiz.OutcomeNone:
		writeError(w, http.StatusConflict, "session is not awaiting an answer")
		return
	case quiz.OutcomeEmpty:
		writeError(w, http.StatusBadRequest, quiz.EmptyPrompt)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordAnswer(out.Kind.String())
	}
	writeJSON(w, http.StatusOK, AnswerResponse{
		Outcome: newOutcomeView(out),
		Session: newSessionView(id, runner, s),
	})
}

// HandleNext handles POST /api/quiz/sessions/{id}/next.
func (h *QuizHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	id, runner, ok := h.lookup(w, r)
	if !ok {
		return
	}
	s := runner.Next()
	writeJSON(w, http.StatusOK, newSessionView(id, runner, s))
}

// HandleRestart handles POST /api/quiz/sessions/{id}/restart.
func (h *QuizHandler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	id, runner, ok := h.lookup(w, r)
	if !ok {
		return
	}
	s := runner.Restart()
	if h.recorder != nil {
		h.recorder.RecordSessionStarted()
	}
	writeJSON(w, http.StatusOK, newSessionView(id, runner, s))
}

// HandleDelete handles DELETE /api/quiz/sessions/{id}.
func (h *QuizHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResults handles GET /api/quiz/results?limit=n.
func (h *QuizHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		writeJSON(w, http.StatusOK, []store.QuizResult{})
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, 100)
	}

	results, err := h.results.RecentResults(r.Context(), limit)
	if err != nil {
		slog.Error("Quiz: failed to read results", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if results == nil {
		results = []store.QuizResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *QuizHandler) lookup(w http.ResponseWriter, r *http.Request) (string, *quiz.Runner, bool) {
	id := r.PathValue("id")
	runner, err := h.sessions.Get(id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, quiz.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return "", nil, false
	}
	return id, runner, true
}
