package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
)

func TestAnthropicEngine_Complete(t *testing.T) {
	var req struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",
			"content":[{"type":"text","text":"Hi "},{"type":"text","text":"there."}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`))
	}))
	defer srv.Close()

	e := NewAnthropicEngine("key", "claude-3-5-haiku-latest", 128, time.Minute, option.WithBaseURL(srv.URL))
	got, err := e.Complete(context.Background(), Prompt{
		Text:    "hello",
		History: []Turn{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Hi there." {
		t.Errorf("got %q", got)
	}
	if req.Model != "claude-3-5-haiku-latest" || req.MaxTokens != 128 {
		t.Errorf("request = %+v", req)
	}
	if len(req.Messages) != 3 || req.Messages[1].Role != "assistant" {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestAnthropicEngine_RateLimitNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"Number of requests has exceeded your rate limit"}}`))
	}))
	defer srv.Close()

	e := NewAnthropicEngine("key", "claude-3-5-haiku-latest", 128, time.Minute, option.WithBaseURL(srv.URL))
	_, err := e.Complete(context.Background(), Prompt{Text: "hello"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "limit") {
		t.Errorf("error = %q, want it to mention the limit", err.Error())
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("backend called %d times, want exactly 1", n)
	}
}
