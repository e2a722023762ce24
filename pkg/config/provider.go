package config

import (
	"context"
	"strconv"
	"time"
)

// StateStore is the subset of the persistent store the provider reads overrides from.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
}

// Provider defines the interface for accessing unified configuration.
type Provider interface {
	// Speech
	SpeechLocale(ctx context.Context) string
	SpeechRate(ctx context.Context) float64
	SpeechVoice(ctx context.Context) string

	// Quiz
	CorrectDelay(ctx context.Context) time.Duration
	IncorrectDelay(ctx context.Context) time.Duration

	// Raw access (for components that need deep access)
	AppConfig() *Config
}

// UnifiedProvider implements Provider by bridging static Config and persistent Store.
type UnifiedProvider struct {
	base  *Config
	store StateStore
}

// NewProvider creates a new UnifiedProvider. st may be nil.
func NewProvider(base *Config, st StateStore) *UnifiedProvider {
	return &UnifiedProvider{
		base:  base,
		store: st,
	}
}

func (p *UnifiedProvider) AppConfig() *Config { return p.base }

func (p *UnifiedProvider) SpeechLocale(ctx context.Context) string {
	return p.base.Speech.Locale
}

func (p *UnifiedProvider) SpeechRate(ctx context.Context) float64 {
	return p.getFloat64(ctx, KeySpeechRate, p.base.Speech.Rate)
}

// SpeechVoice returns the user-selected voice ID, or "" for automatic selection.
func (p *UnifiedProvider) SpeechVoice(ctx context.Context) string {
	return p.getString(ctx, KeySpeechVoice, "")
}

func (p *UnifiedProvider) CorrectDelay(ctx context.Context) time.Duration {
	return p.base.Quiz.CorrectDelay.Std()
}

func (p *UnifiedProvider) IncorrectDelay(ctx context.Context) time.Duration {
	return p.base.Quiz.IncorrectDelay.Std()
}

// --- Helpers ---

func (p *UnifiedProvider) getString(ctx context.Context, key, fallback string) string {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			return val
		}
	}
	return fallback
}

func (p *UnifiedProvider) getFloat64(ctx context.Context, key string, fallback float64) float64 {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f
			}
		}
	}
	return fallback
}
