// Package speech pronounces quiz words through a TTS engine and the local
// audio player. Speaking is best effort: failures are logged and never
// surface to the quiz.
package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"hablago/pkg/audio"
	"hablago/pkg/config"
	"hablago/pkg/tracker"
	"hablago/pkg/tts"
)

// ErrUnavailable is returned when no engine is configured or the engine was disabled.
var ErrUnavailable = errors.New("speech unavailable")

const (
	MinRate = 0.1
	MaxRate = 10.0
)

// Persister stores user-selected settings across restarts.
type Persister interface {
	SetState(ctx context.Context, key, val string) error
}

// Options configures a Pronouncer.
type Options struct {
	Engine     tts.Provider // nil disables pronunciation
	EngineName string
	Player     audio.Player // nil disables local playback
	Locale     string       // e.g. "es-ES"
	CacheDir   string
	Rate       float64
	Pitch      float64
	Volume     float64
	Voice      string // empty selects by locale
	Tracker    *tracker.Tracker
	Persister  Persister
}

// Pronouncer speaks words with a cancel-previous policy.
type Pronouncer struct {
	engine     tts.Provider
	engineName string
	player     audio.Player
	locale     string
	cacheDir   string
	tracker    *tracker.Tracker
	persister  Persister

	playMu sync.Mutex

	mu       sync.Mutex
	prosody  tts.Prosody
	voice    string
	voices   []tts.Voice
	disabled bool
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

// New creates a Pronouncer. Zero prosody values default to rate 0.8, pitch 1, volume 1.
func New(opts Options) *Pronouncer {
	p := &Pronouncer{
		engine:     opts.Engine,
		engineName: opts.EngineName,
		player:     opts.Player,
		locale:     opts.Locale,
		cacheDir:   opts.CacheDir,
		tracker:    opts.Tracker,
		persister:  opts.Persister,
		voice:      opts.Voice,
		prosody:    tts.Prosody{Rate: 0.8, Pitch: 1, Volume: 1},
	}
	if p.locale == "" {
		p.locale = "es-ES"
	}
	if p.cacheDir == "" {
		p.cacheDir = filepath.Join(os.TempDir(), "hablago-speech")
	}
	if opts.Rate != 0 {
		p.prosody.Rate = clamp(opts.Rate, MinRate, MaxRate)
	}
	if opts.Pitch != 0 {
		p.prosody.Pitch = clamp(opts.Pitch, 0, 2)
	}
	if opts.Volume != 0 {
		p.prosody.Volume = clamp(opts.Volume, 0, 1)
	}
	return p
}

// Available reports whether an engine is configured and not disabled.
func (p *Pronouncer) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine != nil && !p.disabled
}

// CanPlay reports whether Speak can produce local audio.
func (p *Pronouncer) CanPlay() bool {
	return p.player != nil && p.Available()
}

// Engine returns the configured engine name.
func (p *Pronouncer) Engine() string {
	return p.engineName
}

// Speak cancels any in-flight utterance and pronounces text in the background.
func (p *Pronouncer) Speak(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" || !p.CanPlay() {
		slog.Debug("Speech: skipped", "text", text, "available", p.CanPlay())
		return
	}

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.inflight.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.inflight.Done()
		defer cancel()
		if err := p.SpeakSync(sctx, text); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("Speech: pronunciation failed", "text", text, "error", err)
		}
	}()
}

// Wait blocks until background utterances finish.
func (p *Pronouncer) Wait() {
	p.inflight.Wait()
}

// Cancel stops any in-flight utterance.
func (p *Pronouncer) Cancel() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
	if p.player != nil {
		p.player.Stop()
	}
}

// SpeakSync synthesizes and plays text, returning when playback ends or ctx is done.
func (p *Pronouncer) SpeakSync(ctx context.Context, text string) error {
	if p.player == nil {
		return ErrUnavailable
	}
	path, err := p.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	// A superseded utterance must not start after its replacement.
	done := make(chan struct{})
	p.playMu.Lock()
	if err := ctx.Err(); err != nil {
		p.playMu.Unlock()
		return err
	}
	err = p.player.Play(path, func() { close(done) })
	p.playMu.Unlock()
	if err != nil {
		return fmt.Errorf("play %s: %w", filepath.Base(path), err)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.player.Stop()
		return ctx.Err()
	}
}

// Synthesize renders text to an audio file in the cache and returns its path.
// Repeated calls with the same text, voice and prosody reuse the file.
func (p *Pronouncer) Synthesize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty text")
	}
	if !p.Available() {
		return "", ErrUnavailable
	}

	voice := p.resolveVoice(ctx)
	prosody := p.Prosody()
	key := cacheKey(p.engineName, voice, prosody, text)

	if path, ok := p.cached(key); ok {
		p.track(true)
		return path, nil
	}
	p.track(false)

	if err := os.MkdirAll(p.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create speech cache: %w", err)
	}
	tmp := filepath.Join(p.cacheDir, key+"-"+uuid.NewString())
	format, err := p.engine.Synthesize(ctx, text, voice, prosody, tmp)
	if err != nil {
		if tts.IsFatalError(err) {
			p.disable(err)
		}
		return "", fmt.Errorf("synthesize: %w", err)
	}

	written := tmp + "." + format
	if err := tts.VerifyAudioFile(written); err != nil {
		_ = os.Remove(written)
		return "", err
	}
	final := filepath.Join(p.cacheDir, key+"."+format)
	if err := os.Rename(written, final); err != nil {
		return "", fmt.Errorf("store speech cache: %w", err)
	}
	return final, nil
}

func (p *Pronouncer) cached(key string) (string, bool) {
	for _, ext := range []string{"mp3", "wav"} {
		path := filepath.Join(p.cacheDir, key+"."+ext)
		if tts.VerifyAudioFile(path) == nil {
			return path, true
		}
	}
	return "", false
}

func (p *Pronouncer) track(hit bool) {
	if p.tracker == nil {
		return
	}
	if hit {
		p.tracker.TrackCacheHit(p.engineName)
	} else {
		p.tracker.TrackCacheMiss(p.engineName)
	}
}

func (p *Pronouncer) disable(err error) {
	p.mu.Lock()
	p.disabled = true
	p.mu.Unlock()
	slog.Error("Speech: engine disabled after fatal error", "engine", p.engineName, "error", err)
}

func cacheKey(engine, voice string, pr tts.Prosody, text string) string {
	h := sha256.New()
	for _, part := range []string{
		engine, voice,
		strconv.FormatFloat(pr.Rate, 'f', 2, 64),
		strconv.FormatFloat(pr.Pitch, 'f', 2, 64),
		strconv.FormatFloat(pr.Volume, 'f', 2, 64),
		text,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Voices returns the engine's voices for the target language.
func (p *Pronouncer) Voices(ctx context.Context) ([]tts.Voice, error) {
	if !p.Available() {
		return nil, ErrUnavailable
	}
	all, err := p.allVoices(ctx)
	if err != nil {
		return nil, err
	}
	base := baseTag(p.locale)
	out := []tts.Voice{}
	for _, v := range all {
		if baseTag(v.Language) == base {
			out = append(out, v)
		}
	}
	return out, nil
}

func (p *Pronouncer) allVoices(ctx context.Context) ([]tts.Voice, error) {
	p.mu.Lock()
	cached := p.voices
	p.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	voices, err := p.engine.Voices(ctx)
	if err != nil {
		if tts.IsFatalError(err) {
			p.disable(err)
		}
		return nil, fmt.Errorf("list voices: %w", err)
	}
	if voices == nil {
		voices = []tts.Voice{}
	}
	p.mu.Lock()
	p.voices = voices
	p.mu.Unlock()
	return voices, nil
}

// resolveVoice returns the selected voice, else the best match for the locale,
// else "" to let the engine use its default.
func (p *Pronouncer) resolveVoice(ctx context.Context) string {
	p.mu.Lock()
	voice := p.voice
	p.mu.Unlock()
	if voice != "" {
		return voice
	}

	all, err := p.allVoices(ctx)
	if err != nil {
		slog.Debug("Speech: voice list unavailable, using engine default", "error", err)
		return ""
	}
	if v, ok := SelectVoice(all, p.locale); ok {
		return v.ID
	}
	return ""
}

// SelectVoice prefers an exact locale match ("es-ES"), then any voice of the
// base language ("es"), then the first voice.
func SelectVoice(voices []tts.Voice, locale string) (tts.Voice, bool) {
	if len(voices) == 0 {
		return tts.Voice{}, false
	}
	for _, v := range voices {
		if strings.EqualFold(v.Language, locale) {
			return v, true
		}
	}
	base := baseTag(locale)
	for _, v := range voices {
		if baseTag(v.Language) == base {
			return v, true
		}
	}
	return voices[0], true
}

func baseTag(tag string) string {
	tag = strings.ReplaceAll(tag, "_", "-")
	return strings.ToLower(strings.SplitN(tag, "-", 2)[0])
}

// Prosody returns the current speaking parameters.
func (p *Pronouncer) Prosody() tts.Prosody {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prosody
}

// Voice returns the user-selected voice ID, "" for automatic.
func (p *Pronouncer) Voice() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voice
}

// SetRate clamps rate to [0.1, 10], stores and returns it.
func (p *Pronouncer) SetRate(ctx context.Context, rate float64) float64 {
	rate = clamp(rate, MinRate, MaxRate)
	p.mu.Lock()
	p.prosody.Rate = rate
	p.mu.Unlock()
	p.persist(ctx, config.KeySpeechRate, strconv.FormatFloat(rate, 'f', -1, 64))
	return rate
}

// SetPitch clamps pitch to [0, 2].
func (p *Pronouncer) SetPitch(pitch float64) float64 {
	pitch = clamp(pitch, 0, 2)
	p.mu.Lock()
	p.prosody.Pitch = pitch
	p.mu.Unlock()
	return pitch
}

// SetVolume clamps volume to [0, 1].
func (p *Pronouncer) SetVolume(volume float64) float64 {
	volume = clamp(volume, 0, 1)
	p.mu.Lock()
	p.prosody.Volume = volume
	p.mu.Unlock()
	return volume
}

// SetVoice selects a voice by ID; "" restores automatic selection.
func (p *Pronouncer) SetVoice(ctx context.Context, id string) {
	p.mu.Lock()
	p.voice = id
	p.mu.Unlock()
	p.persist(ctx, config.KeySpeechVoice, id)
}

func (p *Pronouncer) persist(ctx context.Context, key, val string) {
	if p.persister == nil {
		return
	}
	if err := p.persister.SetState(ctx, key, val); err != nil {
		slog.Warn("Speech: failed to persist setting", "key", key, "error", err)
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
