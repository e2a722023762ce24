package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"hablago/pkg/config"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")
	requestLog := filepath.Join(tempDir, "requests.log")

	// Pre-existing log should be rotated
	if err := os.WriteFile(serverLog, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: serverLog, Level: "DEBUG"},
		Requests: config.LogSettings{Path: requestLog, Level: "INFO"},
	}

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cleanup, err := Init(cfg, &config.HistoryConfig{})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer cleanup()

	if _, err := os.Stat(serverLog); os.IsNotExist(err) {
		t.Error("Server log file not created")
	}
	if _, err := os.Stat(requestLog); os.IsNotExist(err) {
		t.Error("Request log file not created")
	}
	old, err := os.ReadFile(serverLog + ".old")
	if err != nil {
		t.Fatalf("expected rotated log: %v", err)
	}
	if string(old) != "previous run\n" {
		t.Errorf("rotated log content = %q", old)
	}
	if RequestLogger == nil {
		t.Error("RequestLogger was not initialized")
	}

	slog.Info("quiz loaded", "words", 3)
	if got := GlobalLogCapture.GetLastLine(); got == "" {
		t.Error("expected INFO record to be captured")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogCaptureWriter(t *testing.T) {
	w := NewLogCaptureWriter(2)
	if w.GetLastLine() != "" {
		t.Error("expected empty capture")
	}
	_, _ = w.Write([]byte("one\n"))
	_, _ = w.Write([]byte("two\n"))
	_, _ = w.Write([]byte("three\n"))

	if got := w.GetLastLine(); got != "three" {
		t.Errorf("GetLastLine() = %q", got)
	}
	recent := w.Recent(0)
	if len(recent) != 2 || recent[0] != "two" || recent[1] != "three" {
		t.Errorf("Recent() = %v", recent)
	}
}
