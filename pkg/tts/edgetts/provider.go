package edgetts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hablago/pkg/tracker"
	"hablago/pkg/tts"
)

const trackerName = "edge-tts"

// Endpoint holds the connection parameters of the Edge read-aloud service.
type Endpoint struct {
	BaseURL            string
	Origin             string
	UserAgent          string
	TrustedClientToken string
	SecMSGecVersion    string
}

// EndpointFromEnv reads EDGE_TTS_* variables.
func EndpointFromEnv() Endpoint {
	return Endpoint{
		BaseURL:            os.Getenv("EDGE_TTS_BASE_URL"),
		Origin:             os.Getenv("EDGE_TTS_ORIGIN"),
		UserAgent:          os.Getenv("EDGE_TTS_USER_AGENT"),
		TrustedClientToken: os.Getenv("EDGE_TTS_TRUSTED_CLIENT_TOKEN"),
		SecMSGecVersion:    os.Getenv("EDGE_TTS_SEC_MS_GEC_VERSION"),
	}
}

// Validate reports the first missing parameter.
func (e Endpoint) Validate() error {
	switch {
	case e.BaseURL == "":
		return errors.New("EDGE_TTS_BASE_URL environment variable is required")
	case e.Origin == "":
		return errors.New("EDGE_TTS_ORIGIN environment variable is required")
	case e.UserAgent == "":
		return errors.New("EDGE_TTS_USER_AGENT environment variable is required")
	case e.TrustedClientToken == "":
		return errors.New("EDGE_TTS_TRUSTED_CLIENT_TOKEN environment variable is required")
	case e.SecMSGecVersion == "":
		return errors.New("EDGE_TTS_SEC_MS_GEC_VERSION environment variable is required")
	}
	return nil
}

// Provider implements tts.Provider for Microsoft Edge TTS.
type Provider struct {
	tracker  *tracker.Tracker
	endpoint Endpoint
	voiceID  string
}

// NewProvider creates a new Edge TTS provider. voiceID is used when a call passes none.
func NewProvider(t *tracker.Tracker, ep Endpoint, voiceID string) *Provider {
	return &Provider{tracker: t, endpoint: ep, voiceID: voiceID}
}

// Synthesize generates an .mp3 file using Edge TTS.
func (p *Provider) Synthesize(ctx context.Context, text, voice string, prosody tts.Prosody, outputPath string) (string, error) {
	start := time.Now()
	if voice == "" {
		voice = p.voiceID
	}
	if voice == "" {
		return "", fmt.Errorf("voice ID is required")
	}

	fullPath := outputPath
	if !strings.HasSuffix(strings.ToLower(fullPath), ".mp3") {
		fullPath += ".mp3"
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	conn, err := p.dial(ctx)
	if err != nil {
		p.trackFailure()
		return "", err
	}
	defer conn.Close()

	if err := p.sendConfig(conn); err != nil {
		return "", err
	}

	requestID := strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := p.sendSSML(conn, voice, text, prosody, requestID); err != nil {
		return "", err
	}

	if err := p.consumeResponses(ctx, conn, file); err != nil {
		p.trackFailure()
		return "", err
	}

	if p.tracker != nil {
		p.tracker.TrackSynthesis(trackerName, time.Since(start))
	}
	return "mp3", nil
}

func (p *Provider) trackFailure() {
	if p.tracker != nil {
		p.tracker.TrackFailure(trackerName)
	}
}

func (p *Provider) dial(ctx context.Context) (*websocket.Conn, error) {
	ep := p.endpoint
	if err := ep.Validate(); err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Origin", ep.Origin)
	header.Set("Pragma", "no-cache")
	header.Set("Cache-Control", "no-cache")
	header.Set("User-Agent", ep.UserAgent)
	header.Set("Accept-Language", "es-ES,es;q=0.9")

	muid := strings.ReplaceAll(uuid.New().String(), "-", "")
	header.Set("Cookie", fmt.Sprintf("muid=%s", muid))

	token := generateSecMSGec(ep.TrustedClientToken, time.Now())
	url := fmt.Sprintf("%s?TrustedClientToken=%s&Sec-MS-GEC=%s&Sec-MS-GEC-Version=%s",
		ep.BaseURL, ep.TrustedClientToken, token, ep.SecMSGecVersion)

	var dialErr error
	for i := 0; i < 3; i++ {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
		if err == nil {
			return conn, nil
		}
		dialErr = err
		if resp != nil {
			slog.Warn("EdgeTTS: handshake failure", "status", resp.Status, "status_code", resp.StatusCode)
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, tts.NewFatalError(resp.StatusCode, fmt.Sprintf("edge tts handshake rejected: %s", resp.Status))
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("websocket dial failed after retries: %w", dialErr)
}

// generateSecMSGec derives the Sec-MS-GEC token: SHA-256 over the Windows
// file-time tick count, floored to five minutes, followed by the client token.
func generateSecMSGec(trustedClientToken string, now time.Time) string {
	ticks := now.Unix() + 11644473600
	ticks -= ticks % 300
	strToHash := fmt.Sprintf("%d0000000%s", ticks, trustedClientToken)

	hash := sha256.Sum256([]byte(strToHash))
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}

func (p *Provider) sendConfig(conn *websocket.Conn) error {
	configMsg := "Content-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n{\"context\":{\"synthesis\":{\"audio\":{\"metadataoptions\":{\"sentenceBoundaryEnabled\":\"false\",\"wordBoundaryEnabled\":\"false\"},\"outputFormat\":\"audio-24khz-48kbitrate-mono-mp3\"}}}}"
	if err := conn.WriteMessage(websocket.TextMessage, []byte(configMsg)); err != nil {
		return fmt.Errorf("failed to send speech.config: %w", err)
	}
	return nil
}

func (p *Provider) sendSSML(conn *websocket.Conn, voice, text string, prosody tts.Prosody, requestID string) error {
	lang := tts.LanguageOf(voice)
	if lang == "" {
		lang = "es-ES"
	}
	ssml := tts.BuildSSML(lang, voice, text, prosody)
	tts.Log("EDGETTS", ssml, 0, nil)

	ssmlMsg := fmt.Sprintf("X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nPath:ssml\r\n\r\n%s", requestID, ssml)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMsg)); err != nil {
		return fmt.Errorf("failed to send ssml: %w", err)
	}
	return nil
}

func (p *Provider) consumeResponses(ctx context.Context, conn *websocket.Conn, file *os.File) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message failed: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				return nil
			}
		case websocket.BinaryMessage:
			if err := handleBinaryMessage(data, file); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// handleBinaryMessage strips the 2-byte big-endian header length and header.
func handleBinaryMessage(data []byte, file *os.File) error {
	if len(data) < 2 {
		return nil
	}
	headerLength := int(uint16(data[0])<<8 | uint16(data[1]))
	if len(data) < 2+headerLength {
		return nil
	}
	audioData := data[2+headerLength:]
	if len(audioData) > 0 {
		if _, err := file.Write(audioData); err != nil {
			return fmt.Errorf("write audio data failed: %w", err)
		}
	}
	return nil
}

// Voices returns the Spanish neural voices.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	return []tts.Voice{
		{ID: "es-ES-ElviraNeural", Name: "Elvira (Spain)", Language: "es-ES", IsNeural: true},
		{ID: "es-ES-AlvaroNeural", Name: "Álvaro (Spain)", Language: "es-ES", IsNeural: true},
		{ID: "es-ES-XimenaNeural", Name: "Ximena (Spain)", Language: "es-ES", IsNeural: true},
		{ID: "es-MX-DaliaNeural", Name: "Dalia (Mexico)", Language: "es-MX", IsNeural: true},
		{ID: "es-MX-JorgeNeural", Name: "Jorge (Mexico)", Language: "es-MX", IsNeural: true},
		{ID: "es-AR-ElenaNeural", Name: "Elena (Argentina)", Language: "es-AR", IsNeural: true},
		{ID: "es-CO-SalomeNeural", Name: "Salomé (Colombia)", Language: "es-CO", IsNeural: true},
		{ID: "es-US-PalomaNeural", Name: "Paloma (United States)", Language: "es-US", IsNeural: true},
	}, nil
}
