// Package probe runs startup checks against the quiz's dependencies.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds a check that sets no Timeout of its own.
const DefaultTimeout = 5 * time.Second

// CheckFunc returns nil when the dependency is usable.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool // a failure prevents startup
	Timeout  time.Duration
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes the probes concurrently and returns results in input order.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))

	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Go(func() {
			timeout := p.Timeout
			if timeout <= 0 {
				timeout = DefaultTimeout
			}
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := p.Check(checkCtx)
			results[i] = Result{Probe: p, Error: err, Duration: time.Since(start)}
		})
	}
	wg.Wait()

	return results
}

// AnalyzeResults logs every result and joins the errors of failed critical probes.
func AnalyzeResults(results []Result) error {
	var criticalErrors []error

	slog.Info("Startup Checks Summary")

	for _, r := range results {
		took := r.Duration.Round(time.Millisecond)
		switch {
		case r.Error == nil:
			slog.Info(fmt.Sprintf("[PASS] %-12s (%v)", r.Probe.Name, took))
		case r.Probe.Critical:
			slog.Error(fmt.Sprintf("[FAIL] %-12s (%v)", r.Probe.Name, took), "error", r.Error)
			criticalErrors = append(criticalErrors, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		default:
			slog.Warn(fmt.Sprintf("[WARN] %-12s (%v)", r.Probe.Name, took), "error", r.Error)
		}
	}

	return errors.Join(criticalErrors...)
}
