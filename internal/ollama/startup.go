package ollama

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotRunning is returned by EnsureReady when nothing answers at the
// configured base URL.
var ErrNotRunning = errors.New("ollama is not running; start it with: ollama serve")

const warmUpTimeout = 30 * time.Second

// EnsureReady checks that the server answers and that model is installed,
// pulling it if needed, then runs one throwaway generation so the first
// real question does not pay the model load. Progress goes to w. A failed
// warm-up is reported but not returned.
func EnsureReady(ctx context.Context, c *Client, model string, w io.Writer) error {
	if !c.IsRunning(ctx) {
		return ErrNotRunning
	}

	if !c.HasModel(ctx, model) {
		fmt.Fprintf(w, "model %s: pulling...\n", model)
		if err := c.PullModel(ctx, model, progressPrinter(w)); err != nil {
			return fmt.Errorf("pulling model %s: %w", model, err)
		}
	}
	fmt.Fprintf(w, "model %s: ready\n", model)

	warmCtx, cancel := context.WithTimeout(ctx, warmUpTimeout)
	defer cancel()
	if _, err := c.Generate(warmCtx, model, "ping"); err != nil {
		fmt.Fprintf(w, "model %s: warm-up failed (non-fatal): %v\n", model, err)
		return nil
	}
	fmt.Fprintf(w, "model %s: warm\n", model)
	return nil
}

// progressPrinter prints a line when the pull step changes or its download
// advances by at least 10%, so multi-gigabyte pulls stay readable.
func progressPrinter(w io.Writer) func(PullProgress) {
	var lastStatus string
	lastPct := -1
	return func(p PullProgress) {
		pct := p.Percent()
		if p.Status == lastStatus {
			if pct < 0 || pct == lastPct || (pct-lastPct < 10 && pct != 100) {
				return
			}
		}
		lastStatus, lastPct = p.Status, pct
		if pct < 0 {
			fmt.Fprintf(w, "  %s\n", p.Status)
			return
		}
		fmt.Fprintf(w, "  %s %d%%\n", p.Status, pct)
	}
}
