package engine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func tagsJSON(names ...string) []byte {
	type entry struct {
		Name string `json:"name"`
	}
	type resp struct {
		Models []entry `json:"models"`
	}
	r := resp{}
	for _, n := range names {
		r.Models = append(r.Models, entry{Name: n})
	}
	b, _ := json.Marshal(r)
	return b
}

func TestOllamaEngine_CompleteUsesGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{"response": "hello from ollama"})
	}))
	defer srv.Close()

	e := NewOllamaEngine(srv.URL, "llama3.2", time.Minute)
	result, err := e.Complete(context.Background(), Prompt{Text: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result != "hello from ollama" {
		t.Errorf("got %q, want %q", result, "hello from ollama")
	}
	if body["model"] != "llama3.2" || body["prompt"] != "hi" || body["stream"] != false {
		t.Errorf("request body = %v", body)
	}
}

func TestOllamaEngine_CompleteWithHistoryUsesChat(t *testing.T) {
	var req struct {
		Messages []Turn `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "again"},
		})
	}))
	defer srv.Close()

	e := NewOllamaEngine(srv.URL, "llama3.2", time.Minute)
	result, err := e.Complete(context.Background(), Prompt{
		Text: "and now?",
		History: []Turn{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result != "again" {
		t.Errorf("got %q", result)
	}
	if len(req.Messages) != 3 {
		t.Fatalf("sent %d messages, want 3", len(req.Messages))
	}
	if req.Messages[1].Role != RoleAssistant || req.Messages[2].Content != "and now?" {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestOllamaEngine_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	e := NewOllamaEngine(srv.URL, "llama3.2", 50*time.Millisecond)
	if _, err := e.Complete(context.Background(), Prompt{Text: "hi"}); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestOllamaEngine_IsRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("llama3.2:latest"))
	}))
	defer srv.Close()

	e := NewOllamaEngine(srv.URL, "llama3.2", time.Minute)
	if !e.IsRunning(context.Background()) {
		t.Error("IsRunning() = false, want true")
	}
	if !e.ModelInstalled(context.Background()) {
		t.Error("ModelInstalled() = false, want true")
	}

	other := NewOllamaEngine(srv.URL, "mistral", time.Minute)
	if other.ModelInstalled(context.Background()) {
		t.Error("ModelInstalled() = true for a model that is not listed")
	}
}

func TestOllamaEngine_Prepare(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write(tagsJSON("llama3.2:latest"))
		case "/api/generate":
			w.Write([]byte(`{"response":"pong"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var out strings.Builder
	e := NewOllamaEngine(srv.URL, "llama3.2", time.Minute)
	if err := EnsureReady(context.Background(), e, &out); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if !strings.Contains(out.String(), "model llama3.2: ready") {
		t.Errorf("output = %q", out.String())
	}
}

func TestOllamaEngine_PrepareDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	e := NewOllamaEngine(srv.URL, "llama3.2", time.Minute)
	if err := EnsureReady(context.Background(), e, io.Discard); err == nil {
		t.Fatal("expected error when Ollama is down")
	}
}
