package engine

import "context"

// Engine abstracts the language-model backend that answers a question
// (a local Ollama server or a hosted API). The answer fetcher depends on
// this interface instead of on a concrete client.
type Engine interface {
	// Name identifies the backend kind ("ollama", "gemini", "anthropic").
	Name() string

	// Complete performs exactly one backend call and returns the raw reply
	// text. An empty string is a valid reply.
	Complete(ctx context.Context, p Prompt) (string, error)

	// IsRunning reports whether the backend can be used right now.
	IsRunning(ctx context.Context) bool
}
