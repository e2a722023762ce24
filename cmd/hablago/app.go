package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"hablago/pkg/audio"
	"hablago/pkg/config"
	"hablago/pkg/counter"
	"hablago/pkg/db"
	"hablago/pkg/logging"
	"hablago/pkg/quiz"
	"hablago/pkg/speech"
	"hablago/pkg/store"
	"hablago/pkg/tracker"
	"hablago/pkg/tts"
	"hablago/pkg/vocab"
)

// app bundles the services every subcommand starts from.
type app struct {
	cfg      *config.Config
	db       *db.DB
	store    *store.SQLiteStore
	tracker  *tracker.Tracker
	provider *config.UnifiedProvider

	closers []func()
	pending sync.WaitGroup
}

// bootstrap loads the config, starts logging and opens the database.
// console receives the mirrored server log.
func bootstrap(configPath string, console io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logging.Console = console
	cleanupLogs, err := logging.Init(&cfg.Log, &cfg.History)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	tts.SetLogPath(cfg.History.TTS.Path)
	tts.SetEnabled(cfg.History.TTS.Enabled)

	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		cleanupLogs()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	st := store.NewSQLiteStore(dbConn)

	a := &app{
		cfg:      cfg,
		db:       dbConn,
		store:    st,
		tracker:  tracker.New(),
		provider: config.NewProvider(cfg, st),
	}
	a.closers = append(a.closers, cleanupLogs, func() { st.Close() })
	return a, nil
}

// Close waits for background saves, then releases resources in reverse
// order of acquisition.
func (a *app) Close() {
	a.pending.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// pronouncer builds the speech front-end. A nil player means synthesized
// audio is served to the browser instead of played locally. Engine setup
// failures disable pronunciation rather than aborting startup.
func (a *app) pronouncer(ctx context.Context, player audio.Player) *speech.Pronouncer {
	engine, name, err := speech.NewEngine(&a.cfg.Speech, a.tracker)
	if err != nil {
		slog.Warn("Speech engine unavailable, pronunciation disabled", "engine", a.cfg.Speech.Engine, "error", err)
		engine, name = nil, ""
	}
	if engine == nil {
		slog.Info("Pronunciation disabled")
	} else {
		slog.Info("Pronunciation enabled", "engine", name, "locale", a.provider.SpeechLocale(ctx))
	}

	return speech.New(speech.Options{
		Engine:     engine,
		EngineName: name,
		Player:     player,
		Locale:     a.provider.SpeechLocale(ctx),
		CacheDir:   a.cfg.Speech.CacheDir,
		Rate:       a.provider.SpeechRate(ctx),
		Pitch:      a.cfg.Speech.Pitch,
		Volume:     a.cfg.Speech.Volume,
		Voice:      a.provider.SpeechVoice(ctx),
		Tracker:    a.tracker,
		Persister:  a.store,
	})
}

// counter opens the configured visitor counter backend.
func (a *app) counter(ctx context.Context) (*counter.Service, error) {
	cs, cleanup, err := counter.Open(ctx, &a.cfg.Counter, a.store)
	if err != nil {
		return nil, fmt.Errorf("failed to open visitor counter: %w", err)
	}
	a.closers = append(a.closers, cleanup)
	return counter.NewService(cs), nil
}

func (a *app) delays(ctx context.Context) quiz.Delays {
	return quiz.Delays{
		Correct:   a.provider.CorrectDelay(ctx),
		Incorrect: a.provider.IncorrectDelay(ctx),
	}
}

func (a *app) loadVocabulary(ctx context.Context) ([]vocab.Entry, error) {
	return vocab.Load(ctx, a.cfg.Vocabulary.Path, a.cfg.Vocabulary.FetchTimeout.Std())
}

// saveResult persists a finished pass under a fresh result ID, so restarted
// sessions keep one row per pass. Empty vocabularies are not recorded.
func (a *app) saveResult(sessionID, source string, s quiz.Session) {
	if s.TotalWords == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r := resultFromSession(source, s)
	if err := a.store.SaveResult(ctx, r); err != nil {
		slog.Error("Failed to save quiz result", "session", sessionID, "source", source, "error", err)
		return
	}
	slog.Info("Quiz completed", "session", sessionID, "source", source, "total", r.Total, "accuracy", r.Accuracy)
}

// saveResultAsync is saveResult off the caller's goroutine.
func (a *app) saveResultAsync(sessionID, source string, s quiz.Session) {
	a.pending.Go(func() { a.saveResult(sessionID, source, s) })
}

func resultFromSession(source string, s quiz.Session) *store.QuizResult {
	return &store.QuizResult{
		ID:         uuid.NewString(),
		Source:     source,
		Total:      s.TotalWords,
		Correct:    s.Correct,
		Incorrect:  s.Incorrect,
		Accuracy:   quiz.Accuracy(s.Correct, s.Incorrect),
		FinishedAt: time.Now().UTC(),
	}
}
