// Package vocab loads the Spanish/Chinese answer key.
//
// The format is one "source,target" pair per line. Fields are split on
// commas with no quoting or escaping, so a translation cannot itself
// contain a comma. Columns after the second are ignored.
package vocab

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty is returned when the input holds no entries.
var ErrEmpty = errors.New("vocabulary is empty")

// Entry is one Spanish word and its expected translation.
type Entry struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: missing comma in %q", e.Line, e.Text)
}

// Parse splits CSV text into entries, one per line.
func Parse(text string) ([]Entry, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmpty
	}

	lines := strings.Split(text, "\n")
	entries := make([]Entry, 0, len(lines))
	for i, line := range lines {
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return nil, &ParseError{Line: i + 1, Text: strings.TrimSpace(line)}
		}
		entries = append(entries, Entry{
			Source: strings.TrimSpace(fields[0]),
			Target: strings.TrimSpace(fields[1]),
		})
	}
	return entries, nil
}
