// Package audio plays synthesized pronunciations on the local speaker.
package audio

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

const targetSampleRate = beep.SampleRate(48000)

// Player controls local audio playback.
type Player interface {
	// Play stops any current playback and starts path. onComplete runs when
	// the file finishes naturally, not when stopped.
	Play(path string, onComplete func()) error
	// Stop stops current playback.
	Stop()
	// IsPlaying returns true while audio is playing.
	IsPlaying() bool
	// SetVolume sets playback volume (0.0 to 1.0).
	SetVolume(vol float64)
	// Volume returns current volume level.
	Volume() float64
}

// Manager implements Player using gopxl/beep.
type Manager struct {
	mu                 sync.RWMutex
	ctrl               *beep.Ctrl
	volume             float64
	speakerInitialized bool
	streamer           *effects.Volume
	trackStreamer      beep.StreamSeekCloser
	trackFormat        beep.Format
	generation         uint64
	lastFile           string
}

// New creates a new Manager instance.
func New() *Manager {
	return &Manager{volume: 1.0}
}

// Play starts playback of an audio file.
func (m *Manager) Play(path string, onComplete func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	streamer, format, err := DecodeMedia(path)
	if err != nil {
		return err
	}

	if err := m.ensureSpeakerInitialized(); err != nil {
		streamer.Close()
		return err
	}

	resampled := beep.Resample(3, format.SampleRate, targetSampleRate, streamer)
	volStreamer := &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   volumeToPower(m.volume),
		Silent:   m.volume <= 0.01,
	}

	m.streamer = volStreamer
	m.trackStreamer = streamer
	m.trackFormat = format
	m.ctrl = &beep.Ctrl{Streamer: volStreamer}
	m.generation++
	gen := m.generation
	m.lastFile = path

	speaker.Play(beep.Seq(m.ctrl, beep.Callback(func() {
		// Off the speaker goroutine
		go m.finished(gen, onComplete)
	})))

	slog.Debug("Audio: playing", "path", path, "duration", format.SampleRate.D(streamer.Len()))
	return nil
}

func (m *Manager) finished(gen uint64, onComplete func()) {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.ctrl = nil
	if m.trackStreamer != nil {
		m.trackStreamer.Close()
		m.trackStreamer = nil
	}
	m.streamer = nil
	m.mu.Unlock()

	if onComplete != nil {
		onComplete()
	}
}

// Stop stops current playback.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	m.generation++
	if m.ctrl != nil {
		speaker.Clear()
		m.ctrl = nil
	}
	if m.trackStreamer != nil {
		m.trackStreamer.Close()
		m.trackStreamer = nil
	}
	m.streamer = nil
}

func (m *Manager) ensureSpeakerInitialized() error {
	if m.speakerInitialized {
		return nil
	}
	if err := speaker.Init(targetSampleRate, targetSampleRate.N(time.Second/10)); err != nil {
		slog.Error("Failed to initialize speaker", "error", err)
		return fmt.Errorf("speaker init: %w", err)
	}
	m.speakerInitialized = true
	return nil
}

// IsPlaying returns true if audio is currently playing.
func (m *Manager) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil
}

// SetVolume sets playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vol = max(0, min(1, vol))
	m.volume = vol

	if m.streamer != nil {
		speaker.Lock()
		m.streamer.Volume = volumeToPower(vol)
		m.streamer.Silent = vol <= 0.01
		speaker.Unlock()
	}
}

// Volume returns current volume level.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// LastFile returns the path of the most recently started file.
func (m *Manager) LastFile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastFile
}

// Remaining returns the remaining time of the current playback.
func (m *Manager) Remaining() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.trackStreamer == nil || m.trackFormat.SampleRate == 0 {
		return 0
	}
	remainingSamples := m.trackStreamer.Len() - m.trackStreamer.Position()
	if remainingSamples < 0 {
		return 0
	}
	return m.trackFormat.SampleRate.D(remainingSamples)
}

// volumeToPower maps a 0..1 linear volume onto beep's base-2 exponent.
func volumeToPower(vol float64) float64 {
	if vol <= 0.01 {
		return -10
	}
	return math.Log2(vol)
}
