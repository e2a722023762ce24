package logging

import (
	"log/slog"
	"os"
	"strconv"
)

// EnableTrace turns on very chatty debug records such as stale timer drops.
// HABLAGO_TRACE=1 enables it at startup.
var EnableTrace = traceFromEnv()

func traceFromEnv() bool {
	on, _ := strconv.ParseBool(os.Getenv("HABLAGO_TRACE"))
	return on
}

// TraceDefault logs at DEBUG level on the default logger when tracing is enabled.
func TraceDefault(msg string, args ...any) {
	if EnableTrace {
		slog.Debug(msg, args...)
	}
}
