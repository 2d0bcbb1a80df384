package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	values map[string]string
	err    error
	sets   int
}

func (m *mockKeychain) Get(service, account string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.values[service+"/"+account]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (m *mockKeychain) Set(service, account, value string) error {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.sets++
	m.values[service+"/"+account] = value
	return nil
}

// mapBackend is an in-memory ConfigBackend.
type mapBackend struct {
	data map[string]any
}

func newMapBackend(data map[string]any) *mapBackend {
	if data == nil {
		data = make(map[string]any)
	}
	return &mapBackend{data: data}
}

func (b *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, errors.New("not a string")
	}
	return s, true, nil
}

func (b *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return 0, false, nil
	}
	i, ok := v.(int)
	if !ok {
		return 0, true, errors.New("not an int")
	}
	return i, true, nil
}

func (b *mapBackend) SetString(key, val string) error { b.data[key] = val; return nil }
func (b *mapBackend) SetInt(key string, val int) error { b.data[key] = val; return nil }
func (b *mapBackend) Delete(key string) error          { delete(b.data, key); return nil }

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
		for _, a := range s.aliases {
			t.Setenv(a, "")
		}
	}
}

// TestDefaults verifies all default values are applied when the backend is empty.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMapBackend(nil), &mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Backend.Kind != BackendOllama {
		t.Errorf("Backend.Kind = %q, want %q", cfg.Backend.Kind, BackendOllama)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("Ollama.BaseURL = %q", cfg.Ollama.BaseURL)
	}
	if cfg.Ollama.RequestTimeout() != 120*time.Second {
		t.Errorf("Ollama.RequestTimeout() = %v, want 120s", cfg.Ollama.RequestTimeout())
	}
	if cfg.Session.MemoryCap != 4 {
		t.Errorf("Session.MemoryCap = %d, want 4", cfg.Session.MemoryCap)
	}
	if cfg.Session.Replay != "questions" {
		t.Errorf("Session.Replay = %q, want questions", cfg.Session.Replay)
	}
	if cfg.Answer.MaxChars != 400 {
		t.Errorf("Answer.MaxChars = %d, want 400", cfg.Answer.MaxChars)
	}
	if cfg.Answer.Truncation != "expand" {
		t.Errorf("Answer.Truncation = %q, want expand", cfg.Answer.Truncation)
	}
	if cfg.Storage.Driver != "json" {
		t.Errorf("Storage.Driver = %q, want json", cfg.Storage.Driver)
	}
	if cfg.Gemini.Model != "gemini-flash-latest" {
		t.Errorf("Gemini.Model = %q", cfg.Gemini.Model)
	}
}

// TestBackendValues verifies values stored in the platform backend are applied.
func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newMapBackend(map[string]any{
		"ollama.model":       "mistral",
		"session.memory_cap": 8,
		"answer.truncation":  "safe",
		"storage.data_dir":   "/tmp/deskmate-test",
		"storage.driver":     "sqlite",
	})

	cfg, err := loadWith(b, &mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ollama.Model != "mistral" {
		t.Errorf("Ollama.Model = %q", cfg.Ollama.Model)
	}
	if cfg.Session.MemoryCap != 8 {
		t.Errorf("Session.MemoryCap = %d", cfg.Session.MemoryCap)
	}
	if cfg.Answer.Truncation != "safe" {
		t.Errorf("Answer.Truncation = %q", cfg.Answer.Truncation)
	}
	if cfg.Storage.DataDir != "/tmp/deskmate-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q", cfg.Storage.Driver)
	}
}

// TestEnvOverride verifies that environment variables override backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("DESKMATE_OLLAMA_MODEL", "env-model")
	t.Setenv("DESKMATE_ANSWER_MAX_CHARS", "250")

	b := newMapBackend(map[string]any{"ollama.model": "file-model"})
	cfg, err := loadWith(b, &mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ollama.Model != "env-model" {
		t.Errorf("Ollama.Model = %q, want env-model", cfg.Ollama.Model)
	}
	if cfg.Answer.MaxChars != 250 {
		t.Errorf("Answer.MaxChars = %d, want 250", cfg.Answer.MaxChars)
	}
}

func TestGeminiKeyFromPlainEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DESKMATE_BACKEND", "gemini")
	t.Setenv("GEMINI_API_KEY", "plain-key")

	cfg, err := loadWith(newMapBackend(nil), &mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gemini.APIKey != "plain-key" {
		t.Errorf("Gemini.APIKey = %q, want plain-key", cfg.Gemini.APIKey)
	}
}

// TestMissingRequiredKey verifies a clear error when a hosted backend has no key.
func TestMissingRequiredKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("DESKMATE_BACKEND", "gemini")

	_, err := loadWith(newMapBackend(nil), &mockKeychain{})
	if err == nil {
		t.Fatal("expected error for missing API key, got nil")
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Errorf("error = %q, want it to mention missing required config", err.Error())
	}
}

// TestKeychainFallback verifies the secret store is consulted when no key is in env.
func TestKeychainFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("DESKMATE_BACKEND", "anthropic")

	kc := &mockKeychain{values: map[string]string{"deskmate/anthropic_api_key": "keychain-secret"}}
	cfg, err := loadWith(newMapBackend(nil), kc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Anthropic.APIKey != "keychain-secret" {
		t.Errorf("Anthropic.APIKey = %q, want keychain-secret", cfg.Anthropic.APIKey)
	}
}

func TestValidationRejectsUnknownTruncation(t *testing.T) {
	clearEnv(t)
	t.Setenv("DESKMATE_ANSWER_TRUNCATION", "wordwrap")

	_, err := loadWith(newMapBackend(nil), &mockKeychain{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestValidationRejectsZeroMemoryCap(t *testing.T) {
	clearEnv(t)
	b := newMapBackend(map[string]any{"session.memory_cap": 0})

	if _, err := loadWith(b, &mockKeychain{}); err == nil {
		t.Fatal("expected validation error for memory_cap=0")
	}
}

func TestRequestTimeoutFallback(t *testing.T) {
	c := OllamaConfig{Timeout: "soon"}
	if got := c.RequestTimeout(); got != 120*time.Second {
		t.Errorf("RequestTimeout() = %v, want 120s", got)
	}
	a := AnswerConfig{Timeout: "5s"}
	if got := a.RequestTimeout(); got != 5*time.Second {
		t.Errorf("RequestTimeout() = %v, want 5s", got)
	}
}

func TestSetKey(t *testing.T) {
	b := newMapBackend(nil)

	if err := setKeyWith(b, "session.memory_cap", "6"); err != nil {
		t.Fatalf("setKeyWith: %v", err)
	}
	if b.data["session.memory_cap"] != 6 {
		t.Errorf("stored value = %v, want 6", b.data["session.memory_cap"])
	}

	if err := setKeyWith(b, "session.memory_cap", "six"); err == nil {
		t.Error("expected error for non-integer value")
	}
	if err := setKeyWith(b, "gemini.api_key", "x"); err == nil {
		t.Error("expected error for secret key")
	}
	if err := setKeyWith(b, "nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestShowAllMasksSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Gemini.APIKey = "super-secret"

	seen := map[string]KeyInfo{}
	for _, k := range ShowAll(cfg) {
		if k.Value == "super-secret" {
			t.Errorf("secret value exposed under %q", k.Key)
		}
		seen[k.Key] = k
	}

	if got := seen["gemini.api_key"]; !got.Secret || got.Value != secretSet {
		t.Errorf("gemini.api_key = %+v, want masked as set", got)
	}
	if got := seen["anthropic.api_key"]; got.Value != secretUnset {
		t.Errorf("anthropic.api_key = %q, want %q", got.Value, secretUnset)
	}
}

func TestShowAllMarksDefaults(t *testing.T) {
	cfg := defaults()
	cfg.Session.MemoryCap = cfg.Session.MemoryCap + 1

	for _, k := range ShowAll(cfg) {
		switch k.Key {
		case "session.memory_cap":
			if k.Default {
				t.Error("changed memory_cap reported as default")
			}
		case "backend.kind":
			if !k.Default {
				t.Error("untouched backend.kind not reported as default")
			}
		}
	}
}

func TestUnsetKeyWith(t *testing.T) {
	b := newMapBackend(map[string]any{"ollama.model": "mistral"})

	if err := unsetKeyWith(b, "ollama.model"); err != nil {
		t.Fatalf("unsetKeyWith: %v", err)
	}
	if _, ok := b.data["ollama.model"]; ok {
		t.Error("key still present after unset")
	}
	if err := unsetKeyWith(b, "gemini.api_key"); err == nil {
		t.Error("expected error for secret key")
	}
	if err := unsetKeyWith(b, "nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestGetAPIToken(t *testing.T) {
	kc := &mockKeychain{}

	tok, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if tok == "" {
		t.Fatal("expected non-empty token")
	}

	again, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if again != tok {
		t.Errorf("token changed between calls: %q vs %q", tok, again)
	}
	if kc.sets != 1 {
		t.Errorf("Set called %d times, want 1", kc.sets)
	}
}
