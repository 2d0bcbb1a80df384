package answer

import (
	"fmt"
	"strings"
)

// Kind classifies the outcome of one question.
type Kind string

const (
	KindOK         Kind = "ok"
	KindUsageLimit Kind = "usage_limit"
	KindBackend    Kind = "backend"
	// KindStorage means the reply was produced but could not be persisted.
	KindStorage Kind = "storage"
)

// UsageLimitMessage is shown instead of quota and rate-limit errors.
const UsageLimitMessage = "Usage limit reached. Please wait and try again."

// Classify sniffs the lower-cased error description for "quota" or
// "limit". Everything else is a generic backend failure.
func Classify(err error) Kind {
	if err == nil {
		return KindOK
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") || strings.Contains(msg, "limit") {
		return KindUsageLimit
	}
	return KindBackend
}

// Error is a failed question. Message is what the user sees.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Message renders the user-facing text for the failure.
func (e *Error) Message() string {
	if e.Kind == KindUsageLimit {
		return UsageLimitMessage
	}
	return fmt.Sprintf("Error: %s", e.Err.Error())
}

// Failure wraps err as a classified *Error.
func Failure(err error) *Error {
	return &Error{Kind: Classify(err), Err: err}
}
