package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// stubTool returns a minimal query tool with the given behavior.
func stubTool(name string, execute tools.ExecuteFunc) *tools.Tool {
	return &tools.Tool{
		Name:        name,
		Description: "test stub",
		Category:    tools.CategoryQuery,
		Execute:     execute,
	}
}

func stubRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()

	reg.MustRegister(stubTool("ok_tool", func(ctx context.Context, args map[string]any) (any, error) {
		return map[string]any{"ok": true}, nil
	}))
	reg.MustRegister(stubTool("echo_tool", func(ctx context.Context, args map[string]any) (any, error) {
		return map[string]any{"echo": args["msg"]}, nil
	}))
	reg.MustRegister(stubTool("fail_tool", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, errors.New("boom")
	}))
	reg.MustRegister(stubTool("panic_tool", func(ctx context.Context, args map[string]any) (any, error) {
		panic("runaway tool")
	}))

	return reg
}

func intentWith(toolNames ...string) types.Intent {
	return types.Intent{
		Type:           "progress_tracking",
		Confidence:     1,
		Parameters:     map[string]any{"userMessage": "进度"},
		SuggestedTools: toolNames,
	}
}

func TestCoordinatorRun(t *testing.T) {
	c := NewCoordinator(stubRegistry(t), 0, false)

	outcome := c.Run(context.Background(), intentWith("ok_tool"))
	if !outcome.Success {
		t.Fatalf("Success = false, errors: %v", outcome.Errors)
	}
	if len(outcome.ToolsUsed) != 1 || outcome.ToolsUsed[0] != "ok_tool" {
		t.Errorf("ToolsUsed = %v", outcome.ToolsUsed)
	}
	if len(outcome.Results) != len(outcome.ToolsUsed) {
		t.Errorf("Results (%d) and ToolsUsed (%d) must align", len(outcome.Results), len(outcome.ToolsUsed))
	}
	if outcome.Results[0].DurationMs < 0 {
		t.Error("negative duration")
	}
}

func TestCoordinatorPartialFailure(t *testing.T) {
	c := NewCoordinator(stubRegistry(t), 0, false)

	outcome := c.Run(context.Background(), intentWith("ok_tool", "fail_tool"))

	if outcome.Success {
		t.Error("Success must be false when any tool fails")
	}
	if len(outcome.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", outcome.Errors)
	}
	if outcome.Errors[0] != "fail_tool: boom" {
		t.Errorf("Errors[0] = %q, want \"fail_tool: boom\"", outcome.Errors[0])
	}

	// The successful result is still present and aligned.
	if len(outcome.Results) != 2 || len(outcome.ToolsUsed) != 2 {
		t.Fatalf("Results/ToolsUsed = %d/%d, want 2/2", len(outcome.Results), len(outcome.ToolsUsed))
	}
	if !outcome.Results[0].Success {
		t.Error("ok_tool result lost")
	}
	if outcome.Results[1].Success || outcome.Results[1].Error != "boom" {
		t.Errorf("fail_tool result = %+v", outcome.Results[1])
	}
}

func TestCoordinatorUnknownTool(t *testing.T) {
	c := NewCoordinator(stubRegistry(t), 0, false)

	outcome := c.Run(context.Background(), intentWith("ghost_tool"))
	if outcome.Success {
		t.Error("unknown tool must fail the turn")
	}
	if len(outcome.Errors) != 1 || !strings.Contains(outcome.Errors[0], "ghost_tool") {
		t.Errorf("Errors = %v", outcome.Errors)
	}
	// Unknown tools still occupy their slot.
	if len(outcome.Results) != 1 || outcome.Results[0].ToolName != "ghost_tool" {
		t.Errorf("Results = %+v", outcome.Results)
	}
}

func TestCoordinatorPanicIsolation(t *testing.T) {
	c := NewCoordinator(stubRegistry(t), 0, false)

	outcome := c.Run(context.Background(), intentWith("panic_tool", "ok_tool"))

	if outcome.Success {
		t.Error("panicking tool must fail the turn")
	}
	if !strings.Contains(outcome.Errors[0], "panic") || !strings.Contains(outcome.Errors[0], "runaway tool") {
		t.Errorf("Errors[0] = %q", outcome.Errors[0])
	}
	if !outcome.Results[1].Success {
		t.Error("tool after the panic did not run")
	}
}

func TestCoordinatorParallelKeepsOrder(t *testing.T) {
	c := NewCoordinator(stubRegistry(t), 0, true)

	names := []string{"ok_tool", "fail_tool", "echo_tool", "ok_tool"}
	outcome := c.Run(context.Background(), intentWith(names...))

	if len(outcome.ToolsUsed) != len(names) {
		t.Fatalf("ToolsUsed = %v", outcome.ToolsUsed)
	}
	for i, name := range names {
		if outcome.ToolsUsed[i] != name {
			t.Errorf("ToolsUsed[%d] = %q, want %q (request order, not completion order)", i, outcome.ToolsUsed[i], name)
		}
		if outcome.Results[i].ToolName != name {
			t.Errorf("Results[%d].ToolName = %q, want %q", i, outcome.Results[i].ToolName, name)
		}
	}
	if outcome.Success || len(outcome.Errors) != 1 {
		t.Errorf("Success = %v, Errors = %v", outcome.Success, outcome.Errors)
	}
}

func TestCoordinatorRunCallsExplicitArgs(t *testing.T) {
	c := NewCoordinator(stubRegistry(t), 0, false)

	outcome := c.RunCalls(context.Background(), []types.ToolCall{
		{Name: "echo_tool", Arguments: map[string]any{"msg": "你好"}},
	})
	if !outcome.Success {
		t.Fatalf("Errors = %v", outcome.Errors)
	}
	payload := outcome.Results[0].Result.(map[string]any)
	if payload["echo"] != "你好" {
		t.Errorf("echo = %v", payload["echo"])
	}
}

func TestCoordinatorEmptyIntent(t *testing.T) {
	c := NewCoordinator(stubRegistry(t), 0, false)

	outcome := c.Run(context.Background(), types.Intent{Type: types.IntentTypeGeneral})
	if !outcome.Success {
		t.Error("no tools means a vacuously successful outcome")
	}
	if len(outcome.ToolsUsed) != 0 || len(outcome.Results) != 0 {
		t.Errorf("ToolsUsed = %v, Results = %v", outcome.ToolsUsed, outcome.Results)
	}
}
