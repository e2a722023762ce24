package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hablago/pkg/db"
)

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	StateStore
	ResultStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Results ---

func (s *SQLiteStore) SaveResult(ctx context.Context, r *QuizResult) error {
	if r.ID == "" {
		return errors.New("quiz result requires an id")
	}
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO quiz_results (id, source, total, correct, incorrect, accuracy, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.Total, r.Correct, r.Incorrect, r.Accuracy, finished.UTC())
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.ID, err)
	}
	return nil
}

// RecentResults returns up to limit results, newest first.
func (s *SQLiteStore) RecentResults(ctx context.Context, limit int) ([]QuizResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, total, correct, incorrect, accuracy, finished_at
		 FROM quiz_results ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []QuizResult
	for rows.Next() {
		var r QuizResult
		var source sql.NullString
		if err := rows.Scan(&r.ID, &source, &r.Total, &r.Correct, &r.Incorrect, &r.Accuracy, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.Source = source.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
