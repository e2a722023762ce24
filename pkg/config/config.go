package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	History    HistoryConfig    `yaml:"history"`
	DB         DBConfig         `yaml:"db"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Quiz       QuizConfig       `yaml:"quiz"`
	Counter    CounterConfig    `yaml:"counter"`
	Speech     SpeechConfig     `yaml:"speech"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address   string `yaml:"address"`
	StaticDir string `yaml:"static_dir"` // Optional override for the embedded web client
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// HistoryConfig controls append-only debug histories.
type HistoryConfig struct {
	TTS HistorySettings `yaml:"tts"`
}

// HistorySettings holds settings for a single history file.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// VocabularyConfig holds the answer key location.
type VocabularyConfig struct {
	Path         string   `yaml:"path"` // Local file or http(s) URL
	FetchTimeout Duration `yaml:"fetch_timeout"`
}

// QuizConfig holds quiz timing settings.
type QuizConfig struct {
	CorrectDelay   Duration `yaml:"correct_delay"`
	IncorrectDelay Duration `yaml:"incorrect_delay"`
	SessionTTL     Duration `yaml:"session_ttl"`
}

// CounterConfig holds visitor counter persistence settings.
type CounterConfig struct {
	Backend  string         `yaml:"backend"` // "file", "sqlite", "postgres"
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds connection pool settings for the postgres counter.
type PostgresConfig struct {
	URL             string   `yaml:"url"`
	MaxConns        int32    `yaml:"max_conns"`
	MaxConnLifetime Duration `yaml:"max_conn_lifetime"`
}

// EdgeTTSConfig holds settings for Edge TTS.
type EdgeTTSConfig struct {
	VoiceID string `yaml:"voice"` // e.g. "es-ES-ElviraNeural"
}

// AzureSpeechConfig holds settings for Azure Speech TTS.
type AzureSpeechConfig struct {
	Key     string `yaml:"key"`
	Region  string `yaml:"region"` // e.g., "westeurope"
	VoiceID string `yaml:"voice"`
}

// SpeechConfig holds pronunciation settings.
type SpeechConfig struct {
	Engine      string            `yaml:"engine"` // empty disables pronunciation
	Locale      string            `yaml:"locale"`
	Rate        float64           `yaml:"rate"`
	Pitch       float64           `yaml:"pitch"`
	Volume      float64           `yaml:"volume"`
	CacheDir    string            `yaml:"cache_dir"`
	EdgeTTS     EdgeTTSConfig     `yaml:"edge_tts"`
	AzureSpeech AzureSpeechConfig `yaml:"azure_speech"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "0.0.0.0:8000",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		History: HistoryConfig{
			TTS: HistorySettings{
				Enabled: false,
				Path:    "./logs/tts.log",
			},
		},
		DB: DBConfig{
			Path: "./data/hablago.db",
		},
		Vocabulary: VocabularyConfig{
			Path:         "spanish_vocab_8000_zh.csv",
			FetchTimeout: Duration(10 * time.Second),
		},
		Quiz: QuizConfig{
			CorrectDelay:   Duration(1500 * time.Millisecond),
			IncorrectDelay: Duration(3 * time.Second),
			SessionTTL:     Duration(2 * time.Hour),
		},
		Counter: CounterConfig{
			Backend: "file",
			Path:    "visitor_count.txt",
			Postgres: PostgresConfig{
				MaxConns:        4,
				MaxConnLifetime: Duration(30 * time.Minute),
			},
		},
		Speech: SpeechConfig{
			Engine:   "edge-tts",
			Locale:   "es-ES",
			Rate:     0.8, // Slower than normal for learners
			Pitch:    1.0,
			Volume:   1.0,
			CacheDir: "./data/speech",
			EdgeTTS: EdgeTTSConfig{
				VoiceID: "es-ES-ElviraNeural",
			},
			AzureSpeech: AzureSpeechConfig{
				VoiceID: "es-ES-ElviraNeural",
			},
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)
	expandPaths(cfg)

	if !isValidLocale(cfg.Speech.Locale) {
		return nil, fmt.Errorf("invalid speech locale format '%s': must be 'xx-YY' (e.g. 'es-ES', 'es-MX')", cfg.Speech.Locale)
	}

	return cfg, nil
}

// applyEnv fills secrets from the environment. Values are never written back to disk.
func applyEnv(cfg *Config) {
	if cfg.Speech.AzureSpeech.Key == "" {
		cfg.Speech.AzureSpeech.Key = os.Getenv("AZURE_SPEECH_KEY")
	}
	if cfg.Speech.AzureSpeech.Region == "" {
		cfg.Speech.AzureSpeech.Region = os.Getenv("AZURE_SPEECH_REGION")
	}
	if cfg.Counter.Postgres.URL == "" {
		cfg.Counter.Postgres.URL = os.Getenv("HABLAGO_DATABASE_URL")
	}
}

var windowsEnvRe = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

// expandPath resolves $VAR, ${VAR} and %VAR% references.
func expandPath(p string) string {
	p = windowsEnvRe.ReplaceAllStringFunc(p, func(m string) string {
		return os.Getenv(strings.Trim(m, "%"))
	})
	return os.ExpandEnv(p)
}

func expandPaths(cfg *Config) {
	cfg.DB.Path = expandPath(cfg.DB.Path)
	cfg.Counter.Path = expandPath(cfg.Counter.Path)
	cfg.Speech.CacheDir = expandPath(cfg.Speech.CacheDir)
	cfg.Server.StaticDir = expandPath(cfg.Server.StaticDir)
	cfg.Log.Server.Path = expandPath(cfg.Log.Server.Path)
	cfg.Log.Requests.Path = expandPath(cfg.Log.Requests.Path)
	cfg.History.TTS.Path = expandPath(cfg.History.TTS.Path)
	if !strings.HasPrefix(cfg.Vocabulary.Path, "http://") && !strings.HasPrefix(cfg.Vocabulary.Path, "https://") {
		cfg.Vocabulary.Path = expandPath(cfg.Vocabulary.Path)
	}
}

func isValidLocale(s string) bool {
	matched, _ := regexp.MatchString(`^[a-z]{2}-[A-Z]{2}$`, s)
	return matched
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# hablago Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	// Inject comments for enum fields
	reEngine := regexp.MustCompile(`(?m)^(\s+)engine:`)
	data = reEngine.ReplaceAll(data, []byte("${1}# Options: edge-tts, azure-speech, windows-sapi (empty disables pronunciation)\n${1}engine:"))

	reBackend := regexp.MustCompile(`(?m)^(\s+)backend:`)
	data = reBackend.ReplaceAll(data, []byte("${1}# Options: file, sqlite, postgres\n${1}backend:"))

	reRate := regexp.MustCompile(`(?m)^(\s+)rate:`)
	data = reRate.ReplaceAll(data, []byte("${1}# 1.0 is normal speed, clamped to [0.1, 10]\n${1}rate:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
