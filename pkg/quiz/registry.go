package quiz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hablago/pkg/apisession"
	"hablago/pkg/vocab"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("quiz session not found")

// Registry holds the live web sessions keyed by UUID.
type Registry struct {
	sessions   *apisession.Store[Runner]
	delays     Delays
	onComplete func(id string, s Session)
	newRand    func() Rand
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithResultHook registers a callback for sessions reaching PhaseComplete.
func WithResultHook(fn func(id string, s Session)) RegistryOption {
	return func(g *Registry) { g.onComplete = fn }
}

// WithRandSource sets the per-session word picker factory.
func WithRandSource(fn func() Rand) RegistryOption {
	return func(g *Registry) { g.newRand = fn }
}

// NewRegistry creates a registry that drops sessions idle longer than ttl.
func NewRegistry(ttl time.Duration, d Delays, opts ...RegistryOption) *Registry {
	g := &Registry{delays: d}
	for _, opt := range opts {
		opt(g)
	}
	g.sessions = apisession.New(ttl, func(id string, r *Runner) {
		slog.Debug("Quiz: session evicted", "id", id)
		r.Close()
	})
	return g
}

// Create starts a new session over entries.
func (g *Registry) Create(entries []vocab.Entry) (string, *Runner) {
	id := uuid.NewString()

	opts := []RunnerOption{}
	if g.newRand != nil {
		opts = append(opts, WithRand(g.newRand()))
	}
	if g.onComplete != nil {
		opts = append(opts, WithOnComplete(func(s Session) { g.onComplete(id, s) }))
	}

	r := NewRunner(entries, g.delays, opts...)
	g.sessions.Put(id, r)
	return id, r
}

// Get returns the runner for id.
func (g *Registry) Get(id string) (*Runner, error) {
	r, ok := g.sessions.Lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return r, nil
}

// Delete ends a session and cancels its pending transitions.
func (g *Registry) Delete(id string) error {
	if !g.sessions.Delete(id) {
		return ErrSessionNotFound
	}
	return nil
}

// CloseAll ends every session and cancels their pending transitions.
// No result hook fires for a closed session afterwards.
func (g *Registry) CloseAll() {
	g.sessions.Clear()
}

// Len returns the number of live sessions.
func (g *Registry) Len() int {
	return g.sessions.Len()
}

// Janitor evicts idle sessions every interval until ctx is done.
func (g *Registry) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sessions.Cleanup()
		}
	}
}
