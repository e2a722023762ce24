package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hablago/internal/api"
	"hablago/pkg/counter"
	"hablago/pkg/db/maintenance"
	"hablago/pkg/logging"
	"hablago/pkg/metrics"
	"hablago/pkg/probe"
	"hablago/pkg/quiz"
	"hablago/pkg/speech"
	"hablago/pkg/version"
)

const janitorInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web quiz server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), configPath(cmd))
	},
}

func runServe(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := bootstrap(configPath, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("HablaGo Started", "version", version.Version)

	opts := maintenance.Options{SpeechCacheDir: a.cfg.Speech.CacheDir}
	if a.cfg.Counter.Backend == "sqlite" {
		opts.LegacyCounterPath = a.cfg.Counter.Path
	}
	if err := maintenance.Run(ctx, a.store, a.db, opts); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	visits, err := a.counter(ctx)
	if err != nil {
		return err
	}

	// Browser clients play the synthesized audio themselves.
	pron := a.pronouncer(ctx, nil)

	if err := probe.AnalyzeResults(probe.Run(ctx, a.startupProbes(visits, pron))); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	var m *metrics.Metrics
	sessions := quiz.NewRegistry(a.cfg.Quiz.SessionTTL.Std(), a.delays(ctx),
		quiz.WithResultHook(func(id string, s quiz.Session) {
			if s.TotalWords == 0 {
				return
			}
			m.RecordSessionCompleted(quiz.Accuracy(s.Correct, s.Incorrect))
			a.saveResultAsync(id, "web", s)
		}),
	)
	m = metrics.New(metrics.Sources{
		Counter:  visits,
		Sessions: sessions,
		Speech:   a.tracker,
	})
	go sessions.Janitor(ctx, janitorInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() {
		select {
		case quit <- syscall.SIGTERM:
		default:
		}
	}

	srv, err := api.NewServer(a.cfg.Server.Address, a.cfg.Server.StaticDir,
		api.NewCounterHandler(visits, m),
		api.NewQuizHandler(sessions, a.loadVocabulary, m, a.store),
		api.NewSpeechHandler(pron),
		api.NewStatsHandler(a.tracker, sessions),
		m.Handler(),
		shutdownFunc,
	)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}
	srv.Handler = api.LoggingMiddleware(srv.Handler, logging.RequestLogger)

	err = runServerLifecycle(ctx, srv, quit)
	// Stop feedback timers before the store closes.
	sessions.CloseAll()
	pron.Cancel()
	pron.Wait()
	return err
}

// startupProbes checks the database, visitor counter, vocabulary and speech
// engine. Only the database is critical; the others degrade at request time.
func (a *app) startupProbes(visits *counter.Service, pron *speech.Pronouncer) []probe.Probe {
	probes := []probe.Probe{
		{
			Name:     "database",
			Check:    a.db.PingContext,
			Critical: true,
		},
		{
			Name: "counter",
			Check: func(ctx context.Context) error {
				_, err := visits.Current(ctx)
				return err
			},
		},
		{
			Name: "vocabulary",
			Check: func(ctx context.Context) error {
				entries, err := a.loadVocabulary(ctx)
				if err == nil {
					slog.Info("Vocabulary loaded", "path", a.cfg.Vocabulary.Path, "entries", len(entries))
				}
				return err
			},
			Timeout: a.cfg.Vocabulary.FetchTimeout.Std() + time.Second,
		},
	}
	if pron.Available() {
		probes = append(probes, probe.Probe{
			Name: "speech",
			Check: func(ctx context.Context) error {
				_, err := pron.Voices(ctx)
				return err
			},
			Timeout: 10 * time.Second,
		})
	}
	return probes
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
