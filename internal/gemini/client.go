// Package gemini is a minimal client for the Gemini generateContent REST
// endpoint. Only plain text turns are supported.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Roles accepted by the API. Gemini calls the assistant side "model".
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Content is one conversation turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a single text fragment of a turn.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Text builds a single-part turn.
func Text(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

type generateContentRequest struct {
	Contents []Content `json:"contents"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates,omitempty"`
}

type candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// APIError is returned for any non-200 answer. Message is the server's own
// description, e.g. "Resource has been exhausted (e.g. check quota)."
type APIError struct {
	Status     int
	StatusText string
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusText != "" {
		return fmt.Sprintf("gemini: %d %s: %s", e.Status, e.StatusText, e.Message)
	}
	return fmt.Sprintf("gemini: %d: %s", e.Status, e.Message)
}

// Client calls the Gemini API with an API key.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. An empty baseURL selects DefaultBaseURL.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// GenerateContent sends contents to the model and returns the concatenated
// text of the first candidate. A reply without candidates yields "".
func (c *Client) GenerateContent(ctx context.Context, model string, contents []Content) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini: api key is not set")
	}

	body, err := json.Marshal(generateContentRequest{Contents: contents})
	if err != nil {
		return "", err
	}

	model = strings.TrimPrefix(model, "models/")
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var out generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || out.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	e := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	if json.Unmarshal(raw, &payload) == nil && payload.Error.Message != "" {
		e.Message = payload.Error.Message
		e.StatusText = payload.Error.Status
	}
	return e
}
