package quiz

import "time"

// Phase is the current phase of a quiz session.
type Phase int

const (
	PhaseLoading    Phase = iota // Entries not yet presented
	PhasePresenting              // Waiting for an answer
	PhaseEvaluating              // Showing feedback until the delayed advance
	PhaseComplete                // Every entry answered correctly
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhasePresenting:
		return "presenting"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// OutcomeKind classifies the result of a submission.
type OutcomeKind int

const (
	OutcomeNone      OutcomeKind = iota // Submission ignored in the current phase
	OutcomeEmpty                        // Blank input, nothing changed
	OutcomeCorrect                      // Entry removed from the remaining set
	OutcomeIncorrect                    // Entry stays, translation revealed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeEmpty:
		return "empty"
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	default:
		return "none"
	}
}

// Delays controls how long feedback stays visible before advancing.
type Delays struct {
	Correct   time.Duration
	Incorrect time.Duration
}

// DefaultDelays returns 1.5s after a correct answer and 3s after a miss.
func DefaultDelays() Delays {
	return Delays{
		Correct:   1500 * time.Millisecond,
		Incorrect: 3 * time.Second,
	}
}

// Rand picks indices for word selection. *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}
