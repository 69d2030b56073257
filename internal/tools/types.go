// Package tools defines the agent's executable tool surface.
//
// Each tool is a named, schema-described operation over the learner's
// data. The registry holds them; the agent resolves the names an intent
// suggests and executes them one at a time, so a failing tool never
// takes the rest of the turn down with it.
//
// Architecture:
//
//	Intent.SuggestedTools → Registry.Execute() → ToolResult
//	                          │
//	                          └── Descriptors() feeds the LLM planner
//	                              and the MCP server the same definitions
package tools

import (
	"context"
)

// ToolCategory groups tools by the kind of turn they serve.
type ToolCategory string

const (
	// CategoryQuery covers read-only lookups over learner data.
	CategoryQuery ToolCategory = "query"

	// CategoryCreation covers tools that create or mutate entities.
	CategoryCreation ToolCategory = "creation"

	// CategoryGuidance covers advice-style tools that answer without
	// touching stored entities.
	CategoryGuidance ToolCategory = "guidance"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array")
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
}

// ToolSchema defines the JSON schema for tool arguments. This enables
// LLM tool calling and MCP exposure with proper validation.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature for tool execution. The result is a
// JSON-shaped value (map, slice, or scalar) that response rendering
// inspects field by field.
type ExecuteFunc func(ctx context.Context, args map[string]any) (any, error)

// Tool defines one executable operation.
type Tool struct {
	// Name is the unique identifier, matching the names intents suggest.
	Name string

	// Description explains what the tool does. Used for LLM tool
	// calling and the MCP listing.
	Description string

	// Category groups the tool for listing surfaces.
	Category ToolCategory

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema ToolSchema

	// Priority orders tools within a category listing (default 50,
	// higher first).
	Priority int
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Descriptor is the transport-neutral description of one tool, handed
// to the LLM planner and the MCP server.
type Descriptor struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schema      ToolSchema `json:"schema"`
}

// ToolResult wraps the result of one tool execution with metadata.
type ToolResult struct {
	// ToolName identifies which tool was executed.
	ToolName string

	// Result is the JSON-shaped output from the tool.
	Result any

	// Error is set if the tool failed.
	Error error

	// DurationMs is how long execution took.
	DurationMs int64
}

// IsSuccess returns true if the tool executed without error.
func (r *ToolResult) IsSuccess() bool {
	return r.Error == nil
}
