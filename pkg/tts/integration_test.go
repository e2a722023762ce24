package tts_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"hablago/pkg/tracker"
	"hablago/pkg/tts"
	"hablago/pkg/tts/edgetts"
	"hablago/pkg/tts/sapi"
)

func TestLocal_SAPI(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("SAPI only works on Windows")
	}
	if os.Getenv("TEST_TTS") == "" {
		t.Skip("Set TEST_TTS=1 to run SAPI integration test")
	}

	p := sapi.NewProvider()
	outputPath := filepath.Join(t.TempDir(), "test_sapi.wav")

	format, err := p.Synthesize(context.Background(), "Buenos días.", "", tts.Prosody{Rate: 0.8, Pitch: 1, Volume: 1}, outputPath)
	if err != nil {
		t.Fatalf("SAPI synthesis failed: %v", err)
	}
	if format != "wav" {
		t.Errorf("Expected wav, got %s", format)
	}
	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("Output file was not created: %v", err)
	}

	voices, err := p.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices failed: %v", err)
	}
	for _, v := range voices {
		t.Logf("Found voice: %s (%s) %s", v.Name, v.ID, v.Language)
	}
}

func TestOnline_EdgeTTS(t *testing.T) {
	if os.Getenv("TEST_TTS") == "" {
		t.Skip("Set TEST_TTS=1 to run Edge TTS integration test")
	}

	p := edgetts.NewProvider(tracker.New(), edgetts.EndpointFromEnv(), "es-ES-ElviraNeural")
	outputPath := filepath.Join(t.TempDir(), "test_edge.mp3")

	format, err := p.Synthesize(context.Background(), "Buenos días.", "", tts.Prosody{Rate: 0.8, Pitch: 1, Volume: 1}, outputPath)
	if err != nil {
		t.Fatalf("Edge TTS synthesis failed: %v", err)
	}
	if format != "mp3" {
		t.Errorf("Expected mp3, got %s", format)
	}
	if err := tts.VerifyAudioFile(outputPath); err != nil {
		t.Error(err)
	}
}
