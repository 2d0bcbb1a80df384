package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kalambet/deskmate/internal/answer"
	"github.com/kalambet/deskmate/internal/assistant"
	"github.com/kalambet/deskmate/internal/engine"
	"github.com/kalambet/deskmate/internal/session"
	"github.com/kalambet/deskmate/internal/storage"
)

const testToken = "test-token-abc"

type mockEngine struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
	// gate, when set, blocks Complete until it is closed.
	gate chan struct{}
}

func (m *mockEngine) Name() string { return "mock" }

func (m *mockEngine) Complete(ctx context.Context, _ engine.Prompt) (string, error) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.reply, m.err
}

func (m *mockEngine) IsRunning(_ context.Context) bool { return true }

func (m *mockEngine) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestAssistant(t *testing.T, eng *mockEngine) (*assistant.Assistant, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sess := session.New(store, session.DefaultMemoryCap)
	sess.Load()
	f := answer.New(eng, answer.Options{MaxChars: 400, Truncation: answer.ModeHard})
	return assistant.New(sess, f, assistant.Options{Log: store}), store
}

func setupHandler(t *testing.T, eng *mockEngine) (http.Handler, *storage.SQLiteStore) {
	t.Helper()
	a, store := newTestAssistant(t, eng)
	return NewHandler(Deps{
		Assistant:    a,
		Store:        store,
		Interactions: store,
		Backend:      "mock",
		Token:        testToken,
	}), store
}

func authReq(method, url, body, token string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}
