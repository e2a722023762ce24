package tts

import (
	"context"
	"errors"
	"fmt"
	"math"
)

const (
	// MinAudioSize is the minimum size of a synthesized audio file (1KB).
	// Files smaller than this are likely failed synthesis attempts.
	MinAudioSize = 1024
)

// Provider defines the interface for Text-To-Speech engines.
type Provider interface {
	// Synthesize generates audio from text and writes it to outputPath.
	// Returns the audio format ("mp3", "wav") and error.
	Synthesize(ctx context.Context, text, voice string, prosody Prosody, outputPath string) (string, error)

	// Voices returns the voices the engine can speak with.
	Voices(ctx context.Context) ([]Voice, error)
}

// Voice represents an available TTS voice.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"` // BCP 47, e.g. "es-ES"
	IsNeural bool   `json:"neural"`
}

// Prosody holds speaking parameters. 1.0 is the engine default for each.
type Prosody struct {
	Rate   float64
	Pitch  float64
	Volume float64
}

// DefaultProsody is normal speed, pitch and volume.
func DefaultProsody() Prosody {
	return Prosody{Rate: 1, Pitch: 1, Volume: 1}
}

// RelativePercent renders a multiplier as an SSML relative value: 0.8 -> "-20%".
func RelativePercent(v float64) string {
	if v <= 0 {
		v = 1
	}
	pct := int(math.Round((v - 1) * 100))
	if pct >= 0 {
		return fmt.Sprintf("+%d%%", pct)
	}
	return fmt.Sprintf("%d%%", pct)
}

// FatalError represents a TTS error that should disable the engine
// rather than be retried. Examples: rate limits (429), auth failures (401/403).
type FatalError struct {
	StatusCode int
	Message    string
}

func (e *FatalError) Error() string {
	return e.Message
}

// NewFatalError creates a new FatalError with the given status code and message.
func NewFatalError(statusCode int, message string) *FatalError {
	return &FatalError{StatusCode: statusCode, Message: message}
}

// IsFatalError reports whether err wraps a FatalError.
func IsFatalError(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
