package quiz

import (
	"math/rand/v2"
	"sync"

	"hablago/pkg/vocab"
)

// Runner owns one live session and its delayed transitions.
// All methods are safe for concurrent use.
type Runner struct {
	mu      sync.Mutex
	session Session
	timer   Timer
	rng     Rand

	onChange   func(Session)
	onComplete func(Session)
	closed     bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRand sets the word picker. Defaults to a time-seeded PCG.
func WithRand(rng Rand) RunnerOption {
	return func(r *Runner) { r.rng = rng }
}

// WithOnChange registers a callback for transitions made by the timer.
// It runs with the runner lock held and must not call back into the Runner.
func WithOnChange(fn func(Session)) RunnerOption {
	return func(r *Runner) { r.onChange = fn }
}

// WithOnComplete registers a callback for the transition into PhaseComplete.
// It runs with the runner lock held and must not call back into the Runner.
func WithOnComplete(fn func(Session)) RunnerOption {
	return func(r *Runner) { r.onComplete = fn }
}

// NewRunner starts a session over entries and presents the first word.
func NewRunner(entries []vocab.Entry, d Delays, opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	r.session = New(entries, d)
	r.setLocked(r.session.Present(r.rng))
	return r
}

// Snapshot returns the current session value.
func (r *Runner) Snapshot() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Submit evaluates input and schedules the delayed advance.
func (r *Runner) Submit(input string) (Session, Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, out := r.session.Submit(input)
	r.session = next
	if out.Kind != OutcomeCorrect && out.Kind != OutcomeIncorrect {
		return r.session, out
	}
	if r.closed {
		return r.session, out
	}

	var gen uint64
	gen = r.timer.Schedule(out.Delay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.timer.Fire(gen) {
			return
		}
		r.setLocked(r.session.Advance(r.rng))
		if r.onChange != nil {
			r.onChange(r.session)
		}
	})
	return r.session, out
}

// Next moves on immediately: during feedback it advances without waiting,
// while presenting it skips the word unscored.
func (r *Runner) Next() Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.session.Phase {
	case PhaseEvaluating:
		r.timer.Cancel()
		r.setLocked(r.session.Advance(r.rng))
	case PhasePresenting:
		r.setLocked(r.session.Skip(r.rng))
	}
	return r.session
}

// Restart cancels pending transitions and starts over with the original entries.
func (r *Runner) Restart() Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.timer.Cancel()
	r.setLocked(r.session.Restart().Present(r.rng))
	return r.session
}

// Pending reports whether a delayed advance is scheduled.
func (r *Runner) Pending() bool {
	return r.timer.Pending()
}

// Close cancels pending transitions. Later submissions never schedule.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.timer.Cancel()
}

func (r *Runner) setLocked(next Session) {
	wasComplete := r.session.Phase == PhaseComplete
	r.session = next
	if !wasComplete && next.Phase == PhaseComplete && next.TotalWords > 0 && r.onComplete != nil {
		r.onComplete(next)
	}
}
