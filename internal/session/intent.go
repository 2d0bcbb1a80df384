package session

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Intent is what the user's text asks the assistant to do.
type Intent int

const (
	// IntentQuestion is anything that goes to the backend.
	IntentQuestion Intent = iota
	// IntentRecordName is "my name is X".
	IntentRecordName
	// IntentRecallName is "what is my name".
	IntentRecallName
)

func (i Intent) String() string {
	switch i {
	case IntentRecordName:
		return "record_name"
	case IntentRecallName:
		return "recall_name"
	default:
		return "question"
	}
}

// DetectIntent classifies text by plain substring matching on its
// lower-cased form. This is deliberately naive: "my name is" anywhere in
// the text counts.
func DetectIntent(text string) Intent {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "what is my name"):
		return IntentRecallName
	case strings.Contains(lower, "my name is"):
		return IntentRecordName
	default:
		return IntentQuestion
	}
}

// ExtractName returns the text after the last "is" in the lower-cased
// input, trimmed, with its first letter upper-cased. The split is not
// word-aware: "my name is chris" yields "" because "chris" ends in "is".
func ExtractName(raw string) string {
	lower := strings.ToLower(raw)
	if idx := strings.LastIndex(lower, "is"); idx >= 0 {
		lower = lower[idx+len("is"):]
	}
	return capitalize(strings.TrimSpace(lower))
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
