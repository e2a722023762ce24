package tts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVerifyAudioFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("FileDoesNotExist", func(t *testing.T) {
		if err := VerifyAudioFile(filepath.Join(tmpDir, "missing.mp3")); err == nil {
			t.Error("expected error for missing file, got nil")
		}
	})

	t.Run("FileTooSmall", func(t *testing.T) {
		path := filepath.Join(tmpDir, "small.mp3")
		if err := os.WriteFile(path, make([]byte, 512), 0o644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
		if err := VerifyAudioFile(path); err == nil {
			t.Error("expected error for small file, got nil")
		}
	})

	t.Run("FileValid", func(t *testing.T) {
		path := filepath.Join(tmpDir, "valid.mp3")
		if err := os.WriteFile(path, make([]byte, MinAudioSize+1), 0o644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
		if err := VerifyAudioFile(path); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestBuildSSML(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		prosody  Prosody
		expected []string
	}{
		{
			name:     "Learner rate",
			text:     "hola",
			prosody:  Prosody{Rate: 0.8, Pitch: 1, Volume: 1},
			expected: []string{"xml:lang='es-ES'", "name='es-ES-ElviraNeural'", "rate='-20%'", "pitch='+0%'", "volume='+0%'", ">hola<"},
		},
		{
			name:     "Escapes text",
			text:     "Ben & <Jerry's>",
			prosody:  DefaultProsody(),
			expected: []string{"Ben &amp; &lt;Jerry&apos;s&gt;"},
		},
		{
			name:     "Fast and loud",
			text:     "rápido",
			prosody:  Prosody{Rate: 1.5, Pitch: 1.2, Volume: 0.5},
			expected: []string{"rate='+50%'", "pitch='+20%'", "volume='-50%'", "rápido"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSSML("es-ES", "es-ES-ElviraNeural", tt.text, tt.prosody)
			for _, exp := range tt.expected {
				if !strings.Contains(got, exp) {
					t.Errorf("BuildSSML() = %v, expected to contain %v", got, exp)
				}
			}
		})
	}
}

func TestRelativePercent(t *testing.T) {
	tests := map[float64]string{
		1:    "+0%",
		0.8:  "-20%",
		2:    "+100%",
		0.1:  "-90%",
		0:    "+0%",
		1.25: "+25%",
	}
	for in, want := range tests {
		if got := RelativePercent(in); got != want {
			t.Errorf("RelativePercent(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestLanguageOf(t *testing.T) {
	tests := map[string]string{
		"es-ES-ElviraNeural": "es-ES",
		"es-MX-DaliaNeural":  "es-MX",
		"custom":             "",
	}
	for in, want := range tests {
		if got := LanguageOf(in); got != want {
			t.Errorf("LanguageOf(%q) = %q, want %q", in, got, want)
		}
	}
}
