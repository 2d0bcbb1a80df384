package engine

import (
	"context"
	"time"

	"github.com/kalambet/deskmate/internal/gemini"
)

// GeminiEngine sends prompts to the hosted Gemini API.
type GeminiEngine struct {
	client  *gemini.Client
	apiKey  string
	model   string
	timeout time.Duration
}

func NewGeminiEngine(apiKey, baseURL, model string, timeout time.Duration) *GeminiEngine {
	return &GeminiEngine{
		client:  gemini.New(apiKey, baseURL),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
	}
}

func (e *GeminiEngine) Name() string { return BackendGemini }

func (e *GeminiEngine) Complete(ctx context.Context, p Prompt) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	contents := make([]gemini.Content, 0, len(p.History)+1)
	for _, t := range p.History {
		role := gemini.RoleUser
		if t.Role == RoleAssistant {
			role = gemini.RoleModel
		}
		contents = append(contents, gemini.Text(role, t.Content))
	}
	contents = append(contents, gemini.Text(gemini.RoleUser, p.Text))
	return e.client.GenerateContent(ctx, e.model, contents)
}

// IsRunning reports whether an API key is configured. Reachability of the
// hosted service is only known after a call.
func (e *GeminiEngine) IsRunning(_ context.Context) bool {
	return e.apiKey != ""
}
