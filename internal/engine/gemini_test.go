package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGeminiEngine_Complete(t *testing.T) {
	var req struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&req)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Paris."}]}}]}`))
	}))
	defer srv.Close()

	e := NewGeminiEngine("key", srv.URL, "gemini-flash-latest", time.Minute)
	got, err := e.Complete(context.Background(), Prompt{
		Text:    "Capital of France?",
		History: []Turn{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Paris." {
		t.Errorf("got %q", got)
	}
	if len(req.Contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(req.Contents))
	}
	if req.Contents[1].Role != "model" {
		t.Errorf("assistant turn role = %q, want model", req.Contents[1].Role)
	}
	if req.Contents[2].Parts[0].Text != "Capital of France?" {
		t.Errorf("last turn = %+v", req.Contents[2])
	}
}

func TestGeminiEngine_IsRunning(t *testing.T) {
	if NewGeminiEngine("", "", "m", 0).IsRunning(context.Background()) {
		t.Error("IsRunning() = true without API key")
	}
	if !NewGeminiEngine("k", "", "m", 0).IsRunning(context.Background()) {
		t.Error("IsRunning() = false with API key")
	}
}
