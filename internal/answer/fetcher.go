// Package answer turns one question into one backend call and a reply fit
// for a small text bubble.
package answer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/deskmate/internal/engine"
)

// Placeholder replaces an empty or missing reply. It is not an error.
const Placeholder = "I didn't receive a reply. Please try again."

// DefaultMaxChars is the display budget used when none is configured.
const DefaultMaxChars = 400

// Options controls post-processing.
type Options struct {
	MaxChars   int
	Truncation Mode
}

// Request is one question plus what the session remembers.
type Request struct {
	Question string
	Context  string
	// Bare sends the question as is, without the preamble or Context.
	// History, when present, is replayed ahead of it as chat turns.
	Bare    bool
	History []engine.Turn
}

// Answer is a post-processed reply.
type Answer struct {
	Text        string
	Full        string
	Truncated   bool
	Placeholder bool
	Backend     string
}

// Fetcher performs exactly one backend call per Ask. It never retries.
type Fetcher struct {
	engine engine.Engine
	opts   Options
}

// New creates a Fetcher. Zero options fall back to a 400 rune budget and
// ModeExpand.
func New(e engine.Engine, opts Options) *Fetcher {
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if opts.Truncation == "" {
		opts.Truncation = ModeExpand
	}
	return &Fetcher{engine: e, opts: opts}
}

// Backend names the engine in use.
func (f *Fetcher) Backend() string { return f.engine.Name() }

// Ask sends the question and returns the shortened reply. Failures are
// returned as *Error.
func (f *Fetcher) Ask(ctx context.Context, req Request) (Answer, error) {
	p := engine.Prompt{Text: BuildPrompt(req.Context, req.Question)}
	if req.Bare {
		p = engine.Prompt{Text: req.Question, History: req.History}
	}

	start := time.Now()
	raw, err := f.engine.Complete(ctx, p)
	elapsed := time.Since(start)
	if err != nil {
		fail := Failure(err)
		slog.Warn("backend call failed",
			"backend", f.engine.Name(),
			"kind", fail.Kind,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return Answer{Backend: f.engine.Name()}, fail
	}

	out := Answer{Backend: f.engine.Name()}
	text := strings.TrimSpace(raw)
	if text == "" {
		text = Placeholder
		out.Placeholder = true
	}
	out.Text, out.Full, out.Truncated = Truncate(text, f.opts.MaxChars, f.opts.Truncation)

	slog.Debug("backend replied",
		"backend", f.engine.Name(),
		"duration_ms", elapsed.Milliseconds(),
		"chars", len([]rune(text)),
		"truncated", out.Truncated,
	)
	return out, nil
}
