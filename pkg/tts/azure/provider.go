package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hablago/pkg/config"
	"hablago/pkg/tracker"
	"hablago/pkg/tts"
)

const trackerName = "azure-speech"

// Provider implements tts.Provider for Azure Speech.
type Provider struct {
	key       string
	region    string
	voiceID   string
	locale    string
	client    *http.Client
	url       string
	voicesURL string
	tracker   *tracker.Tracker
}

// NewProvider creates a new Azure Speech TTS provider.
// locale filters the voice list and tags the SSML, e.g. "es-ES".
func NewProvider(cfg config.AzureSpeechConfig, locale string, t *tracker.Tracker) *Provider {
	base := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices", cfg.Region)
	return &Provider{
		key:       cfg.Key,
		region:    cfg.Region,
		voiceID:   cfg.VoiceID,
		locale:    locale,
		client:    &http.Client{Timeout: 30 * time.Second},
		url:       base + "/v1",
		voicesURL: base + "/voices/list",
		tracker:   t,
	}
}

// Synthesize generates speech from text using Azure Speech.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID string, prosody tts.Prosody, outputPath string) (string, error) {
	start := time.Now()
	vid := p.voiceID
	if voiceID != "" {
		vid = voiceID
	}
	if vid == "" {
		return "", fmt.Errorf("no voice ID configured for Azure Speech")
	}
	if p.key == "" {
		return "", tts.NewFatalError(http.StatusUnauthorized, "azure speech key is not configured")
	}

	ssml := p.buildSSML(vid, text, prosody)
	if err := validateSSML(ssml); err != nil {
		return "", fmt.Errorf("invalid ssml: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewBufferString(ssml))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", "audio-24khz-160kbitrate-mono-mp3")
	req.Header.Set("User-Agent", "hablago")

	resp, err := p.client.Do(req)
	if err != nil {
		tts.Log("AZURE", ssml, 0, err)
		p.trackFailure()
		return "", fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tts.Log("AZURE", ssml, resp.StatusCode, nil)
		p.trackFailure()
		return "", statusError(resp)
	}

	tts.Log("AZURE", ssml, http.StatusOK, nil)
	ext := "mp3"
	filename := outputPath
	if filepath.Ext(filename) != "."+ext {
		filename = filename + "." + ext
	}

	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		p.trackFailure()
		return "", fmt.Errorf("failed to write audio to file: %w", err)
	}

	if p.tracker != nil {
		p.tracker.TrackSynthesis(trackerName, time.Since(start))
	}
	return ext, nil
}

func (p *Provider) trackFailure() {
	if p.tracker != nil {
		p.tracker.TrackFailure(trackerName)
	}
}

// statusError classifies a non-200 response. 4xx is fatal, 5xx is transient.
func statusError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	bodyStr := string(body)
	if err != nil {
		bodyStr = fmt.Sprintf("[failed to read body: %v]", err)
	}
	if bodyStr == "" {
		bodyStr = "[empty body]"
	}
	msg := fmt.Sprintf("azure speech api error (status %d): %s", resp.StatusCode, bodyStr)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return tts.NewFatalError(resp.StatusCode, msg)
	}
	return fmt.Errorf("%s", msg)
}

type voiceListEntry struct {
	ShortName   string `json:"ShortName"`
	DisplayName string `json:"DisplayName"`
	LocalName   string `json:"LocalName"`
	Locale      string `json:"Locale"`
	VoiceType   string `json:"VoiceType"`
}

// Voices lists the region's voices for the configured language.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	if p.key == "" {
		return nil, tts.NewFatalError(http.StatusUnauthorized, "azure speech key is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.voicesURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice list request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var list []voiceListEntry
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode voice list: %w", err)
	}

	base := strings.SplitN(p.locale, "-", 2)[0]
	var voices []tts.Voice
	for _, v := range list {
		if base != "" && !strings.HasPrefix(strings.ToLower(v.Locale), strings.ToLower(base)) {
			continue
		}
		name := v.DisplayName
		if v.LocalName != "" && v.LocalName != v.DisplayName {
			name = fmt.Sprintf("%s (%s)", v.DisplayName, v.LocalName)
		}
		voices = append(voices, tts.Voice{
			ID:       v.ShortName,
			Name:     name,
			Language: v.Locale,
			IsNeural: v.VoiceType == "Neural",
		})
	}
	return voices, nil
}

// validateSSML checks if the SSML string is well-formed XML.
func validateSSML(ssml string) error {
	decoder := xml.NewDecoder(strings.NewReader(ssml))
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (p *Provider) buildSSML(vid, text string, prosody tts.Prosody) string {
	lang := tts.LanguageOf(vid)
	if lang == "" {
		lang = p.locale
	}
	return tts.BuildSSML(lang, vid, text, prosody)
}
