// Package quiz implements the flashcard state machine.
//
// Session is a value. Every transition returns a new Session and never
// mutates slices reachable from an earlier value.
package quiz

import (
	"math"
	"slices"
	"strings"
	"time"

	"hablago/pkg/vocab"
)

// Feedback texts.
const (
	EmptyPrompt     = "请输入翻译！"
	CorrectText     = "✓ 正确！"
	IncorrectText   = "✗ 错误！"
	RevealText      = "正确答案是："
	CompleteHeading = "🎉 完成！"
)

// Session is the state of one pass through the vocabulary.
type Session struct {
	Remaining    []vocab.Entry
	Current      vocab.Entry
	CurrentIndex int
	TotalWords   int
	Correct      int
	Incorrect    int
	Phase        Phase

	entries []vocab.Entry
	delays  Delays
}

// Outcome describes what a submission changed.
type Outcome struct {
	Kind     OutcomeKind
	Entry    vocab.Entry
	Expected string
	Delay    time.Duration
	// Last is set when a correct answer emptied the remaining set.
	Last bool
}

// New creates a session in PhaseLoading over a copy of entries.
func New(entries []vocab.Entry, d Delays) Session {
	all := slices.Clone(entries)
	return Session{
		Remaining:    slices.Clone(all),
		CurrentIndex: -1,
		TotalWords:   len(all),
		Phase:        PhaseLoading,
		entries:      all,
		delays:       d,
	}
}

// Present picks a random remaining entry. With nothing left the session completes.
func (s Session) Present(rng Rand) Session {
	if s.Phase == PhaseComplete {
		return s
	}
	if len(s.Remaining) == 0 {
		s.Phase = PhaseComplete
		s.Current = vocab.Entry{}
		s.CurrentIndex = -1
		return s
	}
	s.CurrentIndex = rng.IntN(len(s.Remaining))
	s.Current = s.Remaining[s.CurrentIndex]
	s.Phase = PhasePresenting
	return s
}

// Submit evaluates input against the current entry.
// Only PhasePresenting accepts answers; other phases yield OutcomeNone.
func (s Session) Submit(input string) (Session, Outcome) {
	if s.Phase != PhasePresenting {
		return s, Outcome{Kind: OutcomeNone}
	}

	answer := strings.TrimSpace(input)
	if answer == "" {
		return s, Outcome{Kind: OutcomeEmpty, Entry: s.Current}
	}

	out := Outcome{Entry: s.Current, Expected: s.Current.Target}
	if Match(answer, s.Current.Target) {
		s.Correct++
		s.Remaining = slices.Delete(slices.Clone(s.Remaining), s.CurrentIndex, s.CurrentIndex+1)
		out.Kind = OutcomeCorrect
		out.Delay = s.delays.Correct
		out.Last = len(s.Remaining) == 0
	} else {
		s.Incorrect++
		out.Kind = OutcomeIncorrect
		out.Delay = s.delays.Incorrect
	}
	s.Phase = PhaseEvaluating
	return s, out
}

// Advance leaves the feedback phase: the next word, or completion.
func (s Session) Advance(rng Rand) Session {
	if s.Phase != PhaseEvaluating {
		return s
	}
	return s.Present(rng)
}

// Skip presents another random word without scoring the current one.
func (s Session) Skip(rng Rand) Session {
	if s.Phase != PhasePresenting {
		return s
	}
	return s.Present(rng)
}

// Restart returns a fresh session over the original entries.
func (s Session) Restart() Session {
	return New(s.entries, s.delays)
}

// Entries returns a copy of the entries the session was created with.
func (s Session) Entries() []vocab.Entry {
	return slices.Clone(s.entries)
}

// Match compares a trimmed answer with the expected translation, ignoring case.
func Match(input, expected string) bool {
	return strings.ToLower(strings.TrimSpace(input)) == strings.ToLower(expected)
}

// Accuracy returns round(correct/(correct+incorrect)*100), 0 without attempts.
func Accuracy(correct, incorrect int) int {
	attempts := correct + incorrect
	if attempts == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(attempts) * 100))
}

// Progress returns the answered share of the vocabulary in [0, 1].
func (s Session) Progress() float64 {
	if s.TotalWords == 0 {
		return 0
	}
	return float64(s.TotalWords-len(s.Remaining)) / float64(s.TotalWords)
}

// Stats summarizes the session score.
type Stats struct {
	Attempts  int     `json:"attempts"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Accuracy  int     `json:"accuracy"`
	Progress  float64 `json:"progress"`
	Remaining int     `json:"remaining"`
	Total     int     `json:"total"`
}

// Stats returns the current score.
func (s Session) Stats() Stats {
	return Stats{
		Attempts:  s.Correct + s.Incorrect,
		Correct:   s.Correct,
		Incorrect: s.Incorrect,
		Accuracy:  Accuracy(s.Correct, s.Incorrect),
		Progress:  s.Progress(),
		Remaining: len(s.Remaining),
		Total:     s.TotalWords,
	}
}

// Feedback renders the message shown for an outcome.
func Feedback(out Outcome) string {
	switch out.Kind {
	case OutcomeEmpty:
		return EmptyPrompt
	case OutcomeCorrect:
		return CorrectText
	case OutcomeIncorrect:
		return IncorrectText + " " + RevealText + out.Expected
	}
	return ""
}
