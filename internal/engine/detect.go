package engine

import (
	"fmt"

	"github.com/kalambet/deskmate/internal/config"
)

// Backend kinds, matching config.Backend* values.
const (
	BackendOllama    = config.BackendOllama
	BackendGemini    = config.BackendGemini
	BackendAnthropic = config.BackendAnthropic
)

// New returns the Engine selected by cfg.Backend.
func New(cfg config.Config) (Engine, error) {
	switch cfg.Backend.Kind {
	case BackendOllama, "":
		return NewOllamaEngine(cfg.Ollama.BaseURL, cfg.Ollama.Model, cfg.Ollama.RequestTimeout()), nil
	case BackendGemini:
		return NewGeminiEngine(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Answer.RequestTimeout()), nil
	case BackendAnthropic:
		return NewAnthropicEngine(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, cfg.Answer.RequestTimeout()), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend.Kind)
	}
}
