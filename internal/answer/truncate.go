package answer

import (
	"fmt"
	"strings"
	"unicode"
)

// Mode selects how a long reply is shortened for display.
type Mode string

const (
	// ModeHard cuts at the budget, possibly mid-word.
	ModeHard Mode = "hard"
	// ModeSafe cuts back to the last whitespace and appends TruncationNotice.
	// The rest of the reply is discarded.
	ModeSafe Mode = "safe"
	// ModeExpand displays like ModeSafe but keeps the full reply.
	ModeExpand Mode = "expand"
)

// TruncationNotice is appended after a safe cut.
const TruncationNotice = " … (response truncated)"

// ParseMode converts a config value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeHard, ModeSafe, ModeExpand:
		return m, nil
	default:
		return "", fmt.Errorf("unknown truncation mode %q", s)
	}
}

// Truncate shortens text to budget runes according to mode. full is the
// untouched text when mode is ModeExpand and a cut happened, "" otherwise.
// A budget < 1 disables truncation.
func Truncate(text string, budget int, mode Mode) (display, full string, truncated bool) {
	runes := []rune(text)
	if budget < 1 || len(runes) <= budget {
		return text, "", false
	}

	if mode == ModeHard {
		return string(runes[:budget]), "", true
	}

	display = safeCut(runes[:budget]) + TruncationNotice
	if mode == ModeExpand {
		full = text
	}
	return display, full, true
}

// safeCut backs off to the last whitespace in head. When head has no
// usable whitespace it is returned as is.
func safeCut(head []rune) string {
	for i := len(head) - 1; i > 0; i-- {
		if !unicode.IsSpace(head[i]) {
			continue
		}
		body := strings.TrimRightFunc(string(head[:i]), unicode.IsSpace)
		if body != "" {
			return body
		}
		break
	}
	return string(head)
}
