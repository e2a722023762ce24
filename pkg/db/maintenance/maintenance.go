package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"hablago/pkg/config"
	"hablago/pkg/counter"
	"hablago/pkg/db"
	"hablago/pkg/store"
)

const legacyCounterStateKey = "legacy_counter_file_mtime"

const (
	resultRetention = 180 * 24 * time.Hour
	speechRetention = 30 * 24 * time.Hour
)

// Options selects the maintenance inputs.
type Options struct {
	// LegacyCounterPath is a plain-text counter file to fold into persistent_state.
	// Empty skips the import.
	LegacyCounterPath string
	// SpeechCacheDir holds synthesized audio files. Empty skips pruning.
	SpeechCacheDir string
}

// Run executes all maintenance tasks: legacy import and pruning.
// Failures are logged and do not stop startup.
func Run(ctx context.Context, s store.StateStore, d *db.DB, opts Options) error {
	slog.Info("Starting database maintenance...")

	if opts.LegacyCounterPath != "" {
		if err := importLegacyCounter(ctx, s, opts.LegacyCounterPath); err != nil {
			slog.Error("Legacy counter import failed", "error", err)
		}
	}

	if n, err := d.PruneResults(resultRetention); err != nil {
		slog.Error("Result pruning failed", "error", err)
	} else if n > 0 {
		slog.Info("Pruned quiz results", "count", n)
	}

	if opts.SpeechCacheDir != "" {
		if n, err := pruneDir(opts.SpeechCacheDir, speechRetention); err != nil {
			slog.Error("Speech cache pruning failed", "error", err)
		} else if n > 0 {
			slog.Info("Pruned speech cache", "files", n)
		}
	}

	return nil
}

// importLegacyCounter copies a counter file into the sqlite state when the
// file changed since the last import. The larger of both values wins.
func importLegacyCounter(ctx context.Context, s store.StateStore, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat counter file: %w", err)
	}

	fileMTime := info.ModTime().UTC().Format(time.RFC3339)
	if stored, found := s.GetState(ctx, legacyCounterStateKey); found && stored == fileMTime {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read counter file: %w", err)
	}
	fileCount := counter.ParseCount(string(data))

	var current int64
	if v, ok := s.GetState(ctx, config.KeyVisitorCount); ok {
		current = counter.ParseCount(v)
	}

	if fileCount > current {
		if err := s.SetState(ctx, config.KeyVisitorCount, strconv.FormatInt(fileCount, 10)); err != nil {
			return fmt.Errorf("failed to store count: %w", err)
		}
		slog.Info("Imported legacy visitor count", "path", path, "count", fileCount)
	}

	if err := s.SetState(ctx, legacyCounterStateKey, fileMTime); err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}
	return nil
}

// pruneDir removes regular files not modified within maxAge.
func pruneDir(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
