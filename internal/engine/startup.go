package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Preparer is implemented by engines that need setup before the first
// question, such as pulling and warming a local model.
type Preparer interface {
	Prepare(ctx context.Context, w io.Writer) error
}

// EnsureReady prepares e when it supports it and otherwise only checks
// that it is usable. Progress output is written to w.
func EnsureReady(ctx context.Context, e Engine, w io.Writer) error {
	if p, ok := e.(Preparer); ok {
		return p.Prepare(ctx, w)
	}
	if !e.IsRunning(ctx) {
		return fmt.Errorf("%s backend has no API key; export %s_API_KEY (config key %s.api_key)", e.Name(), strings.ToUpper(e.Name()), e.Name())
	}
	fmt.Fprintf(w, "backend %s: ready\n", e.Name())
	return nil
}
