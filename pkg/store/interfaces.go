package store

import (
	"context"
	"time"
)

// QuizResult is the persisted summary of a completed quiz session.
type QuizResult struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"` // "web" or "tui"
	Total      int       `json:"total"`
	Correct    int       `json:"correct"`
	Incorrect  int       `json:"incorrect"`
	Accuracy   int       `json:"accuracy"`
	FinishedAt time.Time `json:"finished_at"`
}

// ResultStore handles completed-session history.
type ResultStore interface {
	SaveResult(ctx context.Context, r *QuizResult) error
	RecentResults(ctx context.Context, limit int) ([]QuizResult, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}
