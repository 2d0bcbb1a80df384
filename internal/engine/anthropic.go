package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicEngine sends prompts to the Claude Messages API.
type AnthropicEngine struct {
	client    anthropic.Client
	apiKey    string
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewAnthropicEngine builds the SDK client with retries disabled: a failed
// question is terminal and the user resubmits.
func NewAnthropicEngine(apiKey, model string, maxTokens int, timeout time.Duration, opts ...option.RequestOption) *AnthropicEngine {
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &AnthropicEngine{
		client:    anthropic.NewClient(all...),
		apiKey:    apiKey,
		model:     model,
		maxTokens: int64(maxTokens),
		timeout:   timeout,
	}
}

func (e *AnthropicEngine) Name() string { return BackendAnthropic }

func (e *AnthropicEngine) Complete(ctx context.Context, p Prompt) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	msgs := make([]anthropic.MessageParam, 0, len(p.History)+1)
	for _, t := range p.History {
		block := anthropic.NewTextBlock(t.Content)
		if t.Role == RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(p.Text)))

	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: e.maxTokens,
		Messages:  msgs,
	})
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// IsRunning reports whether an API key is configured.
func (e *AnthropicEngine) IsRunning(_ context.Context) bool {
	return e.apiKey != ""
}
