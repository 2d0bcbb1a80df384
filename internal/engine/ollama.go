package engine

import (
	"context"
	"io"
	"time"

	"github.com/kalambet/deskmate/internal/ollama"
)

// OllamaEngine adapts the internal/ollama.Client to the Engine interface.
type OllamaEngine struct {
	client  *ollama.Client
	model   string
	timeout time.Duration
}

// NewOllamaEngine creates an OllamaEngine backed by an Ollama server at
// baseURL. timeout bounds every Complete call.
func NewOllamaEngine(baseURL, model string, timeout time.Duration) *OllamaEngine {
	return &OllamaEngine{client: ollama.New(baseURL), model: model, timeout: timeout}
}

func (e *OllamaEngine) Name() string { return BackendOllama }

// Complete uses /api/generate for a bare prompt and /api/chat when history
// turns have to be replayed.
func (e *OllamaEngine) Complete(ctx context.Context, p Prompt) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if len(p.History) == 0 {
		return e.client.Generate(ctx, e.model, p.Text)
	}

	msgs := make([]ollama.Message, 0, len(p.History)+1)
	for _, t := range p.History {
		msgs = append(msgs, ollama.Message{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, ollama.Message{Role: RoleUser, Content: p.Text})
	return e.client.Chat(ctx, e.model, msgs)
}

func (e *OllamaEngine) IsRunning(ctx context.Context) bool {
	return e.client.IsRunning(ctx)
}

// ModelInstalled reports whether the configured model is present locally.
func (e *OllamaEngine) ModelInstalled(ctx context.Context) bool {
	return e.client.HasModel(ctx, e.model)
}

// Prepare makes sure the server is up, the model is present and warm.
func (e *OllamaEngine) Prepare(ctx context.Context, w io.Writer) error {
	return ollama.EnsureReady(ctx, e.client, e.model, w)
}
