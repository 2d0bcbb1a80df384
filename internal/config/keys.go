package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	aliases []string // extra env vars honoured for compatibility, checked after env
	secret  bool
	account string // secret store account name
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "backend.kind", typ: kString, env: "DESKMATE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Backend.Kind = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.Kind },
	},
	{
		key: "ollama.base_url", typ: kString, env: "DESKMATE_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.model", typ: kString, env: "DESKMATE_OLLAMA_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.Model },
	},
	{
		key: "ollama.timeout", typ: kString, env: "DESKMATE_OLLAMA_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Ollama.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.Timeout },
	},
	{
		key: "gemini.api_key", typ: kString, env: "DESKMATE_GEMINI_API_KEY",
		aliases: []string{"GEMINI_API_KEY"},
		secret:  true, account: "gemini_api_key",
		apply:   func(cfg *Config, v any) { cfg.Gemini.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.APIKey },
	},
	{
		key: "gemini.base_url", typ: kString, env: "DESKMATE_GEMINI_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.BaseURL },
	},
	{
		key: "gemini.model", typ: kString, env: "DESKMATE_GEMINI_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.Model },
	},
	{
		key: "anthropic.api_key", typ: kString, env: "DESKMATE_ANTHROPIC_API_KEY",
		aliases: []string{"ANTHROPIC_API_KEY"},
		secret:  true, account: "anthropic_api_key",
		apply:   func(cfg *Config, v any) { cfg.Anthropic.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Anthropic.APIKey },
	},
	{
		key: "anthropic.model", typ: kString, env: "DESKMATE_ANTHROPIC_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Anthropic.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Anthropic.Model },
	},
	{
		key: "anthropic.max_tokens", typ: kInt, env: "DESKMATE_ANTHROPIC_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.Anthropic.MaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Anthropic.MaxTokens },
	},
	{
		key: "session.memory_cap", typ: kInt, env: "DESKMATE_SESSION_MEMORY_CAP",
		apply:   func(cfg *Config, v any) { cfg.Session.MemoryCap = v.(int) },
		extract: func(cfg Config) any { return cfg.Session.MemoryCap },
	},
	{
		key: "session.replay", typ: kString, env: "DESKMATE_SESSION_REPLAY",
		apply:   func(cfg *Config, v any) { cfg.Session.Replay = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.Replay },
	},
	{
		key: "answer.max_chars", typ: kInt, env: "DESKMATE_ANSWER_MAX_CHARS",
		apply:   func(cfg *Config, v any) { cfg.Answer.MaxChars = v.(int) },
		extract: func(cfg Config) any { return cfg.Answer.MaxChars },
	},
	{
		key: "answer.truncation", typ: kString, env: "DESKMATE_ANSWER_TRUNCATION",
		apply:   func(cfg *Config, v any) { cfg.Answer.Truncation = v.(string) },
		extract: func(cfg Config) any { return cfg.Answer.Truncation },
	},
	{
		key: "answer.timeout", typ: kString, env: "DESKMATE_ANSWER_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Answer.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Answer.Timeout },
	},
	{
		key: "storage.data_dir", typ: kString, env: "DESKMATE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "storage.driver", typ: kString, env: "DESKMATE_STORAGE_DRIVER",
		apply:   func(cfg *Config, v any) { cfg.Storage.Driver = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.Driver },
	},
	{
		key: "server.port", typ: kInt, env: "DESKMATE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "log.level", typ: kString, env: "DESKMATE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func lookupEnv(s keySpec) (name, raw string) {
	if raw := os.Getenv(s.env); raw != "" {
		return s.env, raw
	}
	for _, alias := range s.aliases {
		if raw := os.Getenv(alias); raw != "" {
			return alias, raw
		}
	}
	return "", ""
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		name, raw := lookupEnv(s)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				slog.Warn("ignoring non-integer env override", "env", name, "value", raw, "error", err)
			}
		}
	}
}
