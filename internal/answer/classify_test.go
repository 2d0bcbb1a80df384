package answer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindOK},
		{errors.New("429 You exceeded your current QUOTA"), KindUsageLimit},
		{errors.New("rate_limit_error: Number of requests has exceeded your rate limit"), KindUsageLimit},
		{errors.New("Resource has been exhausted (e.g. check quota)."), KindUsageLimit},
		{errors.New("dial tcp 127.0.0.1:11434: connect: connection refused"), KindBackend},
		{fmt.Errorf("generate: %w", errors.New("context deadline exceeded")), KindBackend},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestFailureMessage(t *testing.T) {
	quota := Failure(errors.New("Quota exceeded for metric"))
	if quota.Message() != UsageLimitMessage {
		t.Errorf("quota message = %q", quota.Message())
	}

	generic := Failure(errors.New("connection refused"))
	if !strings.HasPrefix(generic.Message(), "Error: ") {
		t.Errorf("generic message = %q, want Error: prefix", generic.Message())
	}
	if generic.Message() != "Error: connection refused" {
		t.Errorf("generic message = %q", generic.Message())
	}
}

func TestFailureUnwrap(t *testing.T) {
	cause := errors.New("boom")
	var target *Error
	err := error(Failure(fmt.Errorf("wrapped: %w", cause)))
	if !errors.As(err, &target) {
		t.Fatal("errors.As failed")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}
