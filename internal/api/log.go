package api

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"hablago/pkg/logging"
)

// key=value or key="value with spaces"
var logRegex = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"([^"]*)"|([^ ]+))`)

// Values longer than this are dropped from the condensed line.
const maxParamLen = 20

// LogLine is a condensed server log record.
type LogLine struct {
	Time   string   `json:"time,omitempty"`
	Level  string   `json:"level,omitempty"`
	Msg    string   `json:"msg"`
	Params []string `json:"params,omitempty"`
}

// String renders "HH:MM:SS msg (k=v, k=v)".
func (l LogLine) String() string {
	out := l.Msg
	if l.Time != "" {
		out = l.Time + " " + l.Msg
	}
	if len(l.Params) > 0 {
		out = fmt.Sprintf("%s (%s)", out, strings.Join(l.Params, ", "))
	}
	return out
}

// parseLogLine condenses a slog text record. ok is false when no msg was found.
func parseLogLine(raw string) (LogLine, bool) {
	var line LogLine
	for _, m := range logRegex.FindAllStringSubmatch(raw, -1) {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				line.Time = t.Format("15:04:05")
			}
		case "level":
			line.Level = val
		case "msg":
			line.Msg = val
		default:
			if len(val) <= maxParamLen {
				line.Params = append(line.Params, key+"="+val)
			}
		}
	}
	if line.Msg == "" {
		return LogLine{Msg: raw}, false
	}
	sort.Strings(line.Params)
	return line, true
}

func formatLogLine(raw string) string {
	line, ok := parseLogLine(raw)
	if !ok {
		return raw
	}
	return line.String()
}

// handleLatestLog handles GET /api/log/latest.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"log": formatLogLine(logging.GlobalLogCapture.GetLastLine()),
	})
}

// handleRecentLogs handles GET /api/log/recent?n=20.
func handleRecentLogs(w http.ResponseWriter, r *http.Request) {
	n := 20
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid n")
			return
		}
		n = parsed
	}

	raw := logging.GlobalLogCapture.Recent(n)
	lines := make([]LogLine, 0, len(raw))
	for _, l := range raw {
		parsed, _ := parseLogLine(l)
		lines = append(lines, parsed)
	}
	writeJSON(w, http.StatusOK, lines)
}
