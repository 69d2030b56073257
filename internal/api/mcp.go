package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/store"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
)

// NewMCPServer exposes the learning tools and two learner resources over
// MCP. Tool handlers delegate to the same registry the chat loop uses,
// so an MCP client and a chat user see identical behavior.
func NewMCPServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"pointer",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Pointer is a local learning companion. Tools manage goals, paths, and progress; resources expose the learner's status and ability profile."),
		server.WithRecovery(),
	)

	for _, t := range deps.Registry.All() {
		s.AddTool(mcpToolDef(t), mcpToolHandler(deps, t.Name))
	}

	s.AddResource(
		mcp.NewResource(
			"learner://status",
			"Learner Status",
			mcp.WithResourceDescription("Current journey phase, setup state, and suggested next actions"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStatus(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"learner://assessment",
			"Ability Assessment",
			mcp.WithResourceDescription("Latest scored ability assessment"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceAssessment(deps),
	)

	return s
}

// ServeMCPStdio runs the MCP server over stdin/stdout until the client
// disconnects.
func ServeMCPStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// mcpToolDef translates a registry tool definition into an MCP tool.
func mcpToolDef(t *tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}

	required := make(map[string]bool, len(t.Schema.Required))
	for _, name := range t.Schema.Required {
		required[name] = true
	}

	for name, prop := range t.Schema.Properties {
		var propOpts []mcp.PropertyOption
		if prop.Description != "" {
			propOpts = append(propOpts, mcp.Description(prop.Description))
		}
		if required[name] {
			propOpts = append(propOpts, mcp.Required())
		}

		switch prop.Type {
		case "number", "integer":
			opts = append(opts, mcp.WithNumber(name, propOpts...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(name, propOpts...))
		default:
			if vals := enumStrings(prop.Enum); len(vals) > 0 {
				propOpts = append(propOpts, mcp.Enum(vals...))
			}
			opts = append(opts, mcp.WithString(name, propOpts...))
		}
	}

	return mcp.NewTool(t.Name, opts...)
}

func enumStrings(enum []any) []string {
	out := make([]string, 0, len(enum))
	for _, v := range enum {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// mcpToolHandler executes one registry tool. Execution failures surface
// as MCP tool errors, not protocol errors, so the client can retry with
// fixed arguments.
func mcpToolHandler(deps Deps, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := deps.Registry.Execute(ctx, name, req.GetArguments())
		if err != nil {
			return mcpError(err.Error()), nil
		}
		if !res.IsSuccess() {
			return mcpError(res.Error.Error()), nil
		}

		b, err := json.Marshal(res.Result)
		if err != nil {
			return mcpError(fmt.Sprintf("marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceStatus(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		status, err := deps.Journey.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("evaluate status: %w", err)
		}
		return mcpJSONResource(req.Params.URI, status)
	}
}

func mcpResourceAssessment(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		a, err := deps.Store.LatestAssessment()
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.New("no ability assessment yet")
		}
		if err != nil {
			return nil, fmt.Errorf("load assessment: %w", err)
		}
		return mcpJSONResource(req.Params.URI, a)
	}
}

func mcpJSONResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal resource: %w", err)
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
