package logging

import (
	"strings"
	"sync"
)

// LogCaptureWriter is a thread-safe writer that keeps the most recent lines.
type LogCaptureWriter struct {
	mu    sync.RWMutex
	lines []string
	limit int
}

// GlobalLogCapture receives INFO+ server records for the /api/log/latest endpoint.
var GlobalLogCapture = NewLogCaptureWriter(50)

// NewLogCaptureWriter creates a writer that retains up to limit lines.
func NewLogCaptureWriter(limit int) *LogCaptureWriter {
	if limit < 1 {
		limit = 1
	}
	return &LogCaptureWriter{limit: limit}
}

// Write implements io.Writer. Each call is treated as one record.
func (w *LogCaptureWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, strings.TrimRight(string(p), "\n"))
	if len(w.lines) > w.limit {
		w.lines = w.lines[len(w.lines)-w.limit:]
	}
	return len(p), nil
}

// GetLastLine returns the most recent log line.
func (w *LogCaptureWriter) GetLastLine() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.lines) == 0 {
		return ""
	}
	return w.lines[len(w.lines)-1]
}

// Recent returns up to n of the latest lines, oldest first.
func (w *LogCaptureWriter) Recent(n int) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if n <= 0 || n > len(w.lines) {
		n = len(w.lines)
	}
	out := make([]string, n)
	copy(out, w.lines[len(w.lines)-n:])
	return out
}
