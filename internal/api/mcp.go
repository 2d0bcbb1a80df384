package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/deskmate/internal/answer"
	"github.com/kalambet/deskmate/internal/assistant"
	"github.com/kalambet/deskmate/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Assistant    *assistant.Assistant
	Interactions storage.InteractionStore // optional; user://recent is omitted when nil
}

const recentResourceLimit = 10

// NewMCPServer creates an MCP server exposing the assistant to agent hosts.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"deskmate",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("deskmate: a small desktop assistant that remembers the user's name and the last few exchanges."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Ask the assistant a question. Answers are short and use the remembered profile and recent exchanges."),
			mcp.WithString("question", mcp.Required(), mcp.Description("The question to ask")),
		),
		mcpAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("recall_name",
			mcp.WithDescription("Return the user's remembered name, if any"),
		),
		mcpRecallName(deps),
	)

	s.AddTool(
		mcp.NewTool("set_name",
			mcp.WithDescription("Remember the user's name"),
			mcp.WithString("name", mcp.Required(), mcp.Description("The user's name")),
		),
		mcpSetName(deps),
	)

	s.AddTool(
		mcp.NewTool("clear_memory",
			mcp.WithDescription("Forget the remembered exchanges. The profile is kept."),
		),
		mcpClearMemory(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"User Profile",
			mcp.WithResourceDescription("Remembered profile facts as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://memory",
			"Short Memory",
			mcp.WithResourceDescription("Most recent question/answer exchanges, oldest first"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceMemory(deps),
	)

	if deps.Interactions != nil {
		s.AddResource(
			mcp.NewResource(
				"user://recent",
				"Recent Interactions",
				mcp.WithResourceDescription(fmt.Sprintf("Last %d logged interactions", recentResourceLimit)),
				mcp.WithMIMEType("application/json"),
			),
			mcpResourceRecent(deps),
		)
	}

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil || strings.TrimSpace(question) == "" {
			return mcpError("question is required"), nil
		}

		reply := deps.Assistant.Handle(ctx, question)
		if reply.Kind != answer.KindOK {
			return mcpError(reply.Text), nil
		}
		return mcpText(reply.Text), nil
	}
}

func mcpRecallName(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcpText(deps.Assistant.Session().RecallUserName()), nil
	}
}

func mcpSetName(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil || strings.TrimSpace(name) == "" {
			return mcpError("name is required"), nil
		}
		if err := deps.Assistant.Session().SetUserName(strings.TrimSpace(name)); err != nil {
			return mcpError(fmt.Sprintf("failed to save name: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Remembered name %s", strings.TrimSpace(name))), nil
	}
}

func mcpClearMemory(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := deps.Assistant.Session().ClearMemory(); err != nil {
			return mcpError(fmt.Sprintf("failed to clear memory: %v", err)), nil
		}
		return mcpText("Short memory cleared"), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(req.Params.URI, deps.Assistant.Session().Profile())
	}
}

func mcpResourceMemory(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(req.Params.URI, deps.Assistant.Session().Memory())
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		interactions, err := deps.Interactions.RecentInteractions(recentResourceLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load interactions: %w", err)
		}

		type summary struct {
			ID        string `json:"id"`
			Question  string `json:"question"`
			Answer    string `json:"answer"`
			CreatedAt string `json:"created_at"`
		}
		summaries := make([]summary, 0, len(interactions))
		for _, i := range interactions {
			summaries = append(summaries, summary{
				ID:        i.ID,
				Question:  i.Question,
				Answer:    i.Answer,
				CreatedAt: i.CreatedAt.Format("2006-01-02T15:04:05Z"),
			})
		}
		return jsonResource(req.Params.URI, summaries)
	}
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
