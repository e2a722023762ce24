// Package counter persists the visitor count behind /api/visitor-count.
//
// Increment is a plain read-modify-write. There is no locking between
// concurrent callers, so simultaneous visits may lose an update.
package counter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// Store persists a single integer.
type Store interface {
	Load(ctx context.Context) (int64, error)
	Save(ctx context.Context, n int64) error
}

// Service increments and reads the visit count.
type Service struct {
	store Store
}

// NewService creates a counter service over the given store.
func NewService(st Store) *Service {
	return &Service{store: st}
}

// Increment reads the persisted count, adds one, persists and returns it.
// A failed read counts as zero; a failed write is returned.
func (s *Service) Increment(ctx context.Context) (int64, error) {
	n, err := s.store.Load(ctx)
	if err != nil {
		slog.Warn("Visitor count unreadable, starting from zero", "error", err)
		n = 0
	}
	if n < math.MaxInt64 {
		n++
	}
	if err := s.store.Save(ctx, n); err != nil {
		return 0, fmt.Errorf("save visitor count: %w", err)
	}
	return n, nil
}

// Current returns the persisted count without changing it.
func (s *Service) Current(ctx context.Context) (int64, error) {
	return s.store.Load(ctx)
}

// ParseCount reads a leading decimal integer, ignoring surrounding text.
// "12abc" is 12. Garbage, empty and negative values are 0; values beyond
// int64 saturate at math.MaxInt64.
func ParseCount(s string) int64 {
	s = strings.TrimLeft(s, " \t\r\n")
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			return 0
		}
		s = s[1:]
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		d := int64(r - '0')
		if n > (math.MaxInt64-d)/10 {
			return math.MaxInt64
		}
		n = n*10 + d
	}
	return n
}
