package tools

import (
	"context"
	"errors"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d tools", reg.Count())
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:        "track_progress",
		Description: "Report learning progress",
		Category:    CategoryQuery,
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"overallProgress": 0}, nil
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got := reg.Get("track_progress")
	if got == nil {
		t.Fatal("Get returned nil for registered tool")
	}
	if got.Name != "track_progress" {
		t.Errorf("got name %q, want %q", got.Name, "track_progress")
	}
	if !reg.Has("track_progress") {
		t.Error("Has returned false for registered tool")
	}
	if got.Priority != 50 {
		t.Errorf("default priority = %d, want 50", got.Priority)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:     "dupe",
		Category: CategoryGuidance,
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, nil
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	err := reg.Register(tool)
	if !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Fatalf("duplicate Register error = %v, want ErrToolAlreadyRegistered", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		tool    *Tool
		wantErr error
	}{
		{
			name:    "empty name",
			tool:    &Tool{Name: "", Execute: func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }},
			wantErr: ErrToolNameEmpty,
		},
		{
			name:    "nil execute",
			tool:    &Tool{Name: "no_exec", Execute: nil},
			wantErr: ErrToolExecuteNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.tool)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetByCategory(t *testing.T) {
	reg := NewRegistry()

	noop := func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }
	tools := []*Tool{
		{Name: "query1", Category: CategoryQuery, Priority: 80, Execute: noop},
		{Name: "query2", Category: CategoryQuery, Priority: 60, Execute: noop},
		{Name: "create1", Category: CategoryCreation, Execute: noop},
	}

	for _, tool := range tools {
		reg.MustRegister(tool)
	}

	queries := reg.GetByCategory(CategoryQuery)
	if len(queries) != 2 {
		t.Fatalf("expected 2 query tools, got %d", len(queries))
	}
	// Sorted by priority, highest first.
	if queries[0].Name != "query1" {
		t.Errorf("expected query1 first (priority 80), got %s", queries[0].Name)
	}
}

func TestExecute(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:     "echo",
		Category: CategoryGuidance,
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			msg, _ := args["message"].(string)
			return map[string]any{"echo": msg}, nil
		},
		Schema: ToolSchema{
			Required:   []string{"message"},
			Properties: map[string]Property{"message": {Type: "string"}},
		},
	}

	reg.MustRegister(tool)

	result, err := reg.Execute(context.Background(), "echo", map[string]any{"message": "你好"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	payload, ok := result.Result.(map[string]any)
	if !ok || payload["echo"] != "你好" {
		t.Errorf("got result %#v, want echo payload", result.Result)
	}
	if !result.IsSuccess() {
		t.Error("expected IsSuccess to be true")
	}

	// Missing required arg surfaces as a failed result, not a nil one.
	result, err = reg.Execute(context.Background(), "echo", map[string]any{})
	if !errors.Is(err, ErrMissingRequiredArg) {
		t.Errorf("missing arg error = %v, want ErrMissingRequiredArg", err)
	}
	if result == nil || result.IsSuccess() {
		t.Error("missing arg should yield a failed ToolResult")
	}

	if _, err := reg.Execute(context.Background(), "nonexistent", map[string]any{}); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("unknown tool error = %v, want ErrToolNotFound", err)
	}
}

func TestExecuteRecordsDuration(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Tool{
		Name:     "slowish",
		Category: CategoryQuery,
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return "ok", nil
		},
	})

	result, err := reg.Execute(context.Background(), "slowish", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.DurationMs < 0 {
		t.Errorf("duration = %d, want >= 0", result.DurationMs)
	}
}

func TestDescriptorsSorted(t *testing.T) {
	reg := NewRegistry()

	noop := func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }
	reg.MustRegister(&Tool{Name: "zeta", Category: CategoryQuery, Execute: noop})
	reg.MustRegister(&Tool{
		Name:        "alpha",
		Description: "First tool",
		Category:    CategoryCreation,
		Execute:     noop,
		Schema: ToolSchema{
			Required:   []string{"title"},
			Properties: map[string]Property{"title": {Type: "string", Description: "A title"}},
		},
	})

	descs := reg.Descriptors()
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descs))
	}
	if descs[0].Name != "alpha" || descs[1].Name != "zeta" {
		t.Errorf("descriptors not sorted by name: %v, %v", descs[0].Name, descs[1].Name)
	}
	if descs[0].Schema.Required[0] != "title" {
		t.Errorf("schema lost in descriptor: %+v", descs[0].Schema)
	}
}

func TestNamesSorted(t *testing.T) {
	reg := NewRegistry()
	noop := func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }
	for _, name := range []string{"c_tool", "a_tool", "b_tool"} {
		reg.MustRegister(&Tool{Name: name, Category: CategoryGuidance, Execute: noop})
	}

	names := reg.Names()
	want := []string{"a_tool", "b_tool", "c_tool"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("names[%d] = %q, want %q", i, names[i], name)
		}
	}
}
