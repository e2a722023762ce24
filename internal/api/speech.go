package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"hablago/pkg/speech"
	"hablago/pkg/tts"
)

// SpeechService synthesizes pronunciations for the browser.
type SpeechService interface {
	Available() bool
	Engine() string
	Synthesize(ctx context.Context, text string) (string, error)
	Voices(ctx context.Context) ([]tts.Voice, error)
	Voice() string
	Prosody() tts.Prosody
	SetRate(ctx context.Context, rate float64) float64
	SetPitch(pitch float64) float64
	SetVolume(volume float64) float64
	SetVoice(ctx context.Context, id string)
}

// SpeechHandler serves synthesized audio and voice settings.
type SpeechHandler struct {
	speech SpeechService
}

// NewSpeechHandler creates a new SpeechHandler.
func NewSpeechHandler(s SpeechService) *SpeechHandler {
	return &SpeechHandler{speech: s}
}

// SpeechSettings is the current pronunciation configuration.
type SpeechSettings struct {
	Engine string      `json:"engine"`
	Voice  string      `json:"voice"`
	Rate   float64     `json:"rate"`
	Pitch  float64     `json:"pitch"`
	Volume float64     `json:"volume"`
	Voices []tts.Voice `json:"voices,omitempty"`
}

// SpeechSettingsRequest updates any subset of the settings.
type SpeechSettingsRequest struct {
	Voice  *string  `json:"voice"`
	Rate   *float64 `json:"rate"`
	Pitch  *float64 `json:"pitch"`
	Volume *float64 `json:"volume"`
}

const maxSpeechText = 200

// HandleSpeak handles GET /api/speech?text=...
func (h *SpeechHandler) HandleSpeak(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if len([]rune(text)) > maxSpeechText {
		writeError(w, http.StatusBadRequest, "text too long")
		return
	}
	if !h.speech.Available() {
		writeError(w, http.StatusServiceUnavailable, speech.ErrUnavailable.Error())
		return
	}

	path, err := h.speech.Synthesize(r.Context(), text)
	if err != nil {
		if errors.Is(err, speech.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		slog.Warn("Speech: synthesis failed", "text", text, "error", err)
		writeError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	switch filepath.Ext(path) {
	case ".mp3":
		w.Header().Set("Content-Type", "audio/mpeg")
	case ".wav":
		w.Header().Set("Content-Type", "audio/wav")
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

// HandleVoices handles GET /api/speech/voices.
func (h *SpeechHandler) HandleVoices(w http.ResponseWriter, r *http.Request) {
	if !h.speech.Available() {
		writeError(w, http.StatusServiceUnavailable, speech.ErrUnavailable.Error())
		return
	}
	voices, err := h.speech.Voices(r.Context())
	if err != nil {
		slog.Warn("Speech: voice list failed", "error", err)
		writeError(w, http.StatusBadGateway, "voice list unavailable")
		return
	}
	settings := h.settings()
	settings.Voices = voices
	writeJSON(w, http.StatusOK, settings)
}

// HandleGetSettings handles GET /api/speech/settings.
func (h *SpeechHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	if !h.speech.Available() {
		writeError(w, http.StatusServiceUnavailable, speech.ErrUnavailable.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.settings())
}

// HandleSettings handles POST /api/speech/settings.
func (h *SpeechHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	if !h.speech.Available() {
		writeError(w, http.StatusServiceUnavailable, speech.ErrUnavailable.Error())
		return
	}
	var req SpeechSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Rate != nil {
		h.speech.SetRate(r.Context(), *req.Rate)
	}
	if req.Pitch != nil {
		h.speech.SetPitch(*req.Pitch)
	}
	if req.Volume != nil {
		h.speech.SetVolume(*req.Volume)
	}
	if req.Voice != nil {
		h.speech.SetVoice(r.Context(), strings.TrimSpace(*req.Voice))
	}
	writeJSON(w, http.StatusOK, h.settings())
}

func (h *SpeechHandler) settings() SpeechSettings {
	p := h.speech.Prosody()
	return SpeechSettings{
		Engine: h.speech.Engine(),
		Voice:  h.speech.Voice(),
		Rate:   p.Rate,
		Pitch:  p.Pitch,
		Volume: p.Volume,
	}
}
