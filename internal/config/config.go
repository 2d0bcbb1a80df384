package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Backend kinds.
const (
	BackendOllama    = "ollama"
	BackendGemini    = "gemini"
	BackendAnthropic = "anthropic"
)

type Config struct {
	Backend   BackendConfig
	Ollama    OllamaConfig
	Gemini    GeminiConfig
	Anthropic AnthropicConfig
	Session   SessionConfig
	Answer    AnswerConfig
	Storage   StorageConfig
	Server    ServerConfig
	Log       LogConfig
}

type BackendConfig struct {
	Kind string `validate:"oneof=ollama gemini anthropic"`
}

type OllamaConfig struct {
	BaseURL string `validate:"required,url"`
	Model   string `validate:"required"`
	Timeout string
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string `validate:"required,url"`
	Model   string `validate:"required"`
}

type AnthropicConfig struct {
	APIKey    string
	Model     string `validate:"required"`
	MaxTokens int    `validate:"min=1"`
}

type SessionConfig struct {
	MemoryCap int    `validate:"min=1"`
	Replay    string `validate:"oneof=questions last_exchange"`
}

type AnswerConfig struct {
	MaxChars   int    `validate:"min=1"`
	Truncation string `validate:"oneof=hard safe expand"`
	Timeout    string
}

type StorageConfig struct {
	DataDir string `validate:"required"`
	Driver  string `validate:"oneof=json sqlite"`
}

type ServerConfig struct {
	Port int `validate:"min=1,max=65535"`
}

type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

func defaults() Config {
	return Config{
		Backend: BackendConfig{Kind: BackendOllama},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "llama3.2",
			Timeout: "120s",
		},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   "gemini-flash-latest",
		},
		Anthropic: AnthropicConfig{
			Model:     "claude-3-5-haiku-latest",
			MaxTokens: 512,
		},
		Session: SessionConfig{
			MemoryCap: 4,
			Replay:    "questions",
		},
		Answer: AnswerConfig{
			MaxChars:   400,
			Truncation: "expand",
			Timeout:    "60s",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
			Driver:  "json",
		},
		Server: ServerConfig{Port: 4100},
		Log:    LogConfig{Level: "info"},
	}
}

// RequestTimeout returns the fixed timeout applied to every local
// inference call. Unparseable values fall back to 120s.
func (c OllamaConfig) RequestTimeout() time.Duration {
	return parseDuration(c.Timeout, 120*time.Second, "ollama.timeout")
}

// RequestTimeout returns the timeout applied to hosted backend calls.
func (c AnswerConfig) RequestTimeout() time.Duration {
	return parseDuration(c.Timeout, 60*time.Second, "answer.timeout")
}

func parseDuration(raw string, fallback time.Duration, key string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.deskmate.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/deskmate/config.json
// and secrets come from environment variables or the local secrets file.
//
// Environment variables (DESKMATE_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret store reads for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	applySecrets(&cfg, kc)

	cfg.Backend.Kind = strings.ToLower(strings.TrimSpace(cfg.Backend.Kind))

	switch cfg.Backend.Kind {
	case BackendGemini:
		if cfg.Gemini.APIKey == "" {
			return Config{}, fmt.Errorf("missing required config: Gemini API key. "+
				"Set it via environment variable GEMINI_API_KEY or DESKMATE_GEMINI_API_KEY%s", apiKeyHint("gemini_api_key"))
		}
	case BackendAnthropic:
		if cfg.Anthropic.APIKey == "" {
			return Config{}, fmt.Errorf("missing required config: Anthropic API key. "+
				"Set it via environment variable ANTHROPIC_API_KEY or DESKMATE_ANTHROPIC_API_KEY%s", apiKeyHint("anthropic_api_key"))
		}
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applySecrets fills still-empty secrets from the platform secret store.
func applySecrets(cfg *Config, kc keychain) {
	for _, s := range specs {
		if !s.secret || s.account == "" {
			continue
		}
		if s.extract(*cfg).(string) != "" {
			continue
		}
		if v, err := kc.Get(secretService, s.account); err == nil && v != "" {
			s.apply(cfg, v)
		}
	}
}

var validate = func() func(Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	return func(cfg Config) error {
		if err := v.Struct(cfg); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return nil
	}
}()

const secretService = "deskmate"

// keychainReader reads secrets from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (keychainReader) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}
