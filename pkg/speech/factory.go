package speech

import (
	"fmt"

	"hablago/pkg/config"
	"hablago/pkg/tracker"
	"hablago/pkg/tts"
	"hablago/pkg/tts/azure"
	"hablago/pkg/tts/edgetts"
	"hablago/pkg/tts/sapi"
)

// Canonical engine names.
const (
	EngineEdge  = "edge-tts"
	EngineAzure = "azure-speech"
	EngineSAPI  = "windows-sapi"
)

// NewEngine returns the TTS engine named in cfg and its canonical name.
// An empty engine disables pronunciation and returns a nil provider.
func NewEngine(cfg *config.SpeechConfig, t *tracker.Tracker) (tts.Provider, string, error) {
	switch cfg.Engine {
	case "", "none", "off":
		return nil, "", nil
	case "sapi", EngineSAPI:
		return sapi.NewProvider(), EngineSAPI, nil
	case "edge", EngineEdge:
		ep := edgetts.EndpointFromEnv()
		if err := ep.Validate(); err != nil {
			return nil, "", fmt.Errorf("edge-tts: %w", err)
		}
		return edgetts.NewProvider(t, ep, cfg.EdgeTTS.VoiceID), EngineEdge, nil
	case "azure", EngineAzure:
		return azure.NewProvider(cfg.AzureSpeech, cfg.Locale, t), EngineAzure, nil
	default:
		return nil, "", fmt.Errorf("unknown tts engine: %s", cfg.Engine)
	}
}
