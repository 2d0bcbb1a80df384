//go:build !darwin

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskmate", "config.json")
	b := newFileBackend(path)

	if err := b.SetString("ollama.model", "mistral"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := b.SetInt("session.memory_cap", 6); err != nil {
		t.Fatalf("SetInt: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	reopened := newFileBackend(path)
	if v, ok, _ := reopened.GetString("ollama.model"); !ok || v != "mistral" {
		t.Errorf("ollama.model = %q, %v", v, ok)
	}
	if v, ok, err := reopened.GetInt("session.memory_cap"); err != nil || !ok || v != 6 {
		t.Errorf("session.memory_cap = %d, %v, %v", v, ok, err)
	}

	if err := reopened.Delete("ollama.model"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := newFileBackend(path).GetString("ollama.model"); ok {
		t.Error("deleted key still present")
	}
}

func TestFileBackendQuotedInt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"session.memory_cap":"8","server.port":1.5}`), 0o600); err != nil {
		t.Fatal(err)
	}
	b := newFileBackend(path)

	if v, _, err := b.GetInt("session.memory_cap"); err != nil || v != 8 {
		t.Errorf("quoted int = %d, %v", v, err)
	}
	if _, _, err := b.GetInt("server.port"); err == nil {
		t.Error("expected error for fractional number")
	}
}

func TestFileBackendCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	b := newFileBackend(path)
	if _, ok, _ := b.GetString("backend.kind"); ok {
		t.Error("corrupt file should read as empty")
	}
	if err := b.SetString("backend.kind", "ollama"); err != nil {
		t.Fatalf("SetString over corrupt file: %v", err)
	}
}

func TestSecretsFile(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if _, err := keychainGet(secretService, "gemini_api_key"); err == nil {
		t.Fatal("expected error before any secret is stored")
	}
	if err := keychainSet(secretService, "gemini_api_key", "k1"); err != nil {
		t.Fatalf("keychainSet: %v", err)
	}
	if err := keychainSet(secretService, "anthropic_api_key", "k2"); err != nil {
		t.Fatalf("keychainSet: %v", err)
	}

	got, err := keychainGet(secretService, "gemini_api_key")
	if err != nil || string(got) != "k1" {
		t.Errorf("gemini secret = %q, %v", got, err)
	}
	if _, err := keychainGet(secretService, "missing"); err == nil {
		t.Error("expected error for unknown account")
	}
}
