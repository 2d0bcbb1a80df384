package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kalambet/deskmate/internal/answer"
	"github.com/kalambet/deskmate/internal/assistant"
	"github.com/kalambet/deskmate/internal/config"
	"github.com/kalambet/deskmate/internal/storage"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

// Status lines go to stderr so stdout stays clean for answers and JSON.

func printSuccess(format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+fmt.Sprintf(format, args...)))
}

func printError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+fmt.Sprintf(format, args...)))
}

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}

// printReply writes the display text of r, or the untruncated answer when
// full is set. Failures are shown in red.
func printReply(w io.Writer, r assistant.Reply, full bool) {
	text := r.Text
	if full && r.Full != "" {
		text = r.Full
	}
	if r.Kind == answer.KindOK {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprintln(w, colorize(colorRed, text))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMemory(w io.Writer, memory []storage.Exchange) {
	if len(memory) == 0 {
		fmt.Fprintln(w, "Nothing remembered yet.")
		return
	}
	for i, e := range memory {
		fmt.Fprintf(w, "%s %s\n", colorize(colorBold, fmt.Sprintf("%d. Q:", i+1)), e.User)
		fmt.Fprintf(w, "   A: %s\n", e.Assistant)
	}
}

func printInteractions(w io.Writer, interactions []storage.Interaction) {
	if len(interactions) == 0 {
		fmt.Fprintln(w, "No interactions found.")
		return
	}
	for _, ix := range interactions {
		question := []rune(ix.Question)
		q := string(question)
		if len(question) > 80 {
			q = string(question[:80]) + "..."
		}
		status := ix.Backend
		if ix.ErrorKind != "" {
			status = colorize(colorRed, ix.ErrorKind)
		}
		id := ix.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(w, "%s  %s  %-9s  %s\n",
			colorize(colorCyan, id),
			ix.CreatedAt.Local().Format("2006-01-02 15:04"),
			status,
			q,
		)
	}
}

func printConfig(w io.Writer, keys []config.KeyInfo) {
	for _, k := range keys {
		line := fmt.Sprintf("  %s = %s", colorize(colorBold, k.Key), k.Value)
		if k.Default {
			line += colorize(colorDim, " (default)")
		}
		fmt.Fprintln(w, line)
	}
}
