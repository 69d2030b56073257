package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/assessment"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/journey"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/perception"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/store"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools/learning"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// fakeLLM returns a canned completion, or an error.
type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeLLM) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.response, f.err
}

// newTestChat wires a full pipeline over an in-memory store: real
// classifier, real learning tools, no model unless llm is given.
func newTestChat(t *testing.T, llm perception.LLMClient) (*ChatService, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	svc := learning.NewService(st, journey.NewManager(st, 0), assessment.NewPlanCache(0, 0))
	reg := tools.NewRegistry()
	if err := learning.RegisterAll(reg, svc); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}

	chat, err := NewChatService(Deps{
		Classifier:  perception.NewClassifier(),
		Coordinator: NewCoordinator(reg, 0, false),
		Registry:    reg,
		Store:       st,
		LLM:         llm,
	})
	if err != nil {
		t.Fatalf("NewChatService: %v", err)
	}
	return chat, st
}

// seedProgressPath stores an active ten-node path: three nodes done, the
// fourth in progress, unit progress averaging 42%.
func seedProgressPath(t *testing.T, st *store.MemoryStore) {
	t.Helper()

	progress := []float64{1, 1, 1, 0.6, 0.3, 0.2, 0.1, 0, 0, 0}
	path := types.LearningPath{
		ID:     "p1",
		GoalID: "g1",
		Title:  "Go 进阶",
		Status: types.PathStatusActive,
	}
	for i, p := range progress {
		status := types.UnitStatusPending
		switch {
		case p >= 1:
			status = types.UnitStatusCompleted
		case i == 3:
			status = types.UnitStatusInProgress
		}
		nodeID := fmt.Sprintf("n%d", i+1)
		unitID := fmt.Sprintf("u%d", i+1)
		path.Nodes = append(path.Nodes, types.PathNode{
			ID: nodeID, Title: fmt.Sprintf("第 %d 章", i+1), Status: status,
			CourseUnitIDs: []string{unitID},
		})
		if err := st.SaveUnit(types.CourseUnit{
			ID: unitID, PathID: "p1", NodeID: nodeID, Progress: p, Status: status,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.SavePath(path); err != nil {
		t.Fatal(err)
	}
}

func TestProcessMessageProgressScenario(t *testing.T) {
	chat, st := newTestChat(t, nil)
	seedProgressPath(t, st)

	turn, err := chat.ProcessMessage(context.Background(), "s1", "我的学习进度如何？")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if turn.Intent.Type != "progress_tracking" {
		t.Errorf("intent = %q, want progress_tracking", turn.Intent.Type)
	}
	if len(turn.ToolsUsed) != 1 || turn.ToolsUsed[0] != "track_learning_progress" {
		t.Errorf("ToolsUsed = %v", turn.ToolsUsed)
	}
	for _, want := range []string{"42", "3", "10"} {
		if !strings.Contains(turn.Response, want) {
			t.Errorf("response %q missing %q", turn.Response, want)
		}
	}

	history, err := st.SessionHistory("s1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}
	if history[0].Response != turn.Response {
		t.Error("recorded turn differs from returned turn")
	}
}

func TestProcessMessageCreatesGoal(t *testing.T) {
	chat, st := newTestChat(t, nil)

	turn, err := chat.ProcessMessage(context.Background(), "s1", "我想学会React")
	if err != nil {
		t.Fatal(err)
	}

	if turn.Intent.Type != "goal_setting" {
		t.Errorf("intent = %q", turn.Intent.Type)
	}
	if !strings.Contains(turn.Response, "React") {
		t.Errorf("response %q missing goal title", turn.Response)
	}

	goals, err := st.ListGoals()
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 1 || goals[0].Title != "React" {
		t.Errorf("goals = %+v", goals)
	}
}

func TestProcessMessageGeneralFallback(t *testing.T) {
	chat, _ := newTestChat(t, nil)

	turn, err := chat.ProcessMessage(context.Background(), "s1", "你好")
	if err != nil {
		t.Fatal(err)
	}

	if turn.Intent.Type != types.IntentTypeGeneral {
		t.Errorf("intent = %q, want general", turn.Intent.Type)
	}
	if turn.Intent.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", turn.Intent.Confidence)
	}
	if len(turn.ToolsUsed) != 1 || turn.ToolsUsed[0] != "suggest_next_action" {
		t.Errorf("ToolsUsed = %v", turn.ToolsUsed)
	}
	if turn.Response == "" {
		t.Error("empty response")
	}
}

func TestProcessMessageToolFailureStillReplies(t *testing.T) {
	chat, _ := newTestChat(t, nil)

	// No active path exists, so the progress tool fails; the reply must
	// carry guidance, not a raw error dump.
	turn, err := chat.ProcessMessage(context.Background(), "s1", "我的学习进度如何？")
	if err != nil {
		t.Fatal(err)
	}
	if turn.Response == "" {
		t.Fatal("empty response")
	}
	if !strings.Contains(turn.Response, "no active learning path") {
		t.Errorf("response %q should summarize the tool error", turn.Response)
	}
	if len(turn.Results) != 1 || turn.Results[0].Success {
		t.Errorf("Results = %+v", turn.Results)
	}
}

func TestProcessMessageEmpty(t *testing.T) {
	chat, _ := newTestChat(t, nil)

	if _, err := chat.ProcessMessage(context.Background(), "s1", "   "); err == nil {
		t.Error("blank message should be rejected")
	}
}

func TestProcessMessagePanicDegradesToFallback(t *testing.T) {
	chat, st := newTestChat(t, nil)
	chat.responder = nil // force a panic inside the turn

	turn, err := chat.ProcessMessage(context.Background(), "s1", "你好")
	if err != nil {
		t.Fatalf("a broken turn must not surface as an error: %v", err)
	}
	if turn.Response != fallbackReply {
		t.Errorf("response = %q, want the fixed fallback", turn.Response)
	}
	if len(turn.ToolsUsed) != 0 {
		t.Errorf("ToolsUsed = %v, want empty", turn.ToolsUsed)
	}

	// The failed turn is still recorded.
	history, err := st.SessionHistory("s1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Errorf("history = %d entries, want 1", len(history))
	}
}

func TestProcessMessageModelPlan(t *testing.T) {
	llm := &fakeLLM{response: `{"toolCalls": [{"name": "create_learning_goal", "arguments": {"title": "Rust"}}], "confidence": 0.9}`}
	chat, st := newTestChat(t, llm)

	turn, err := chat.ProcessMessage(context.Background(), "s1", "帮我一下")
	if err != nil {
		t.Fatal(err)
	}

	if len(turn.ToolsUsed) != 1 || turn.ToolsUsed[0] != "create_learning_goal" {
		t.Errorf("ToolsUsed = %v", turn.ToolsUsed)
	}
	goals, err := st.ListGoals()
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 1 || goals[0].Title != "Rust" {
		t.Errorf("goals = %+v", goals)
	}
}

func TestProcessMessageModelDirectReply(t *testing.T) {
	llm := &fakeLLM{response: `{"reply": "你好！随时可以问我学习上的问题。"}`}
	chat, _ := newTestChat(t, llm)

	turn, err := chat.ProcessMessage(context.Background(), "s1", "你好")
	if err != nil {
		t.Fatal(err)
	}
	if turn.Response != "你好！随时可以问我学习上的问题。" {
		t.Errorf("response = %q", turn.Response)
	}
	if len(turn.ToolsUsed) != 0 {
		t.Errorf("ToolsUsed = %v, want none for a direct reply", turn.ToolsUsed)
	}
}

func TestProcessMessageModelFailureFallsBack(t *testing.T) {
	llm := &fakeLLM{err: fmt.Errorf("connection refused")}
	chat, st := newTestChat(t, llm)
	seedProgressPath(t, st)

	turn, err := chat.ProcessMessage(context.Background(), "s1", "我的学习进度如何？")
	if err != nil {
		t.Fatal(err)
	}
	// Keyword path still answers the progress question.
	for _, want := range []string{"42", "3", "10"} {
		if !strings.Contains(turn.Response, want) {
			t.Errorf("response %q missing %q", turn.Response, want)
		}
	}
}

func TestProcessMessageModelUnknownToolDropped(t *testing.T) {
	llm := &fakeLLM{response: `{"toolCalls": [{"name": "delete_everything", "arguments": {}}]}`}
	chat, st := newTestChat(t, llm)
	seedProgressPath(t, st)

	turn, err := chat.ProcessMessage(context.Background(), "s1", "我的学习进度如何？")
	if err != nil {
		t.Fatal(err)
	}
	// The invented tool is dropped, leaving an empty plan, so the
	// keyword path takes over.
	if len(turn.ToolsUsed) != 1 || turn.ToolsUsed[0] != "track_learning_progress" {
		t.Errorf("ToolsUsed = %v", turn.ToolsUsed)
	}
}

func TestHistoryAndReset(t *testing.T) {
	chat, _ := newTestChat(t, nil)
	ctx := context.Background()

	if _, err := chat.ProcessMessage(ctx, "s1", "你好"); err != nil {
		t.Fatal(err)
	}
	if _, err := chat.ProcessMessage(ctx, "s1", "我想学会React"); err != nil {
		t.Fatal(err)
	}
	if _, err := chat.ProcessMessage(ctx, "other", "你好"); err != nil {
		t.Fatal(err)
	}

	history, err := chat.History("s1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d entries, want 2", len(history))
	}
	if history[0].UserMessage != "我想学会React" {
		t.Errorf("history[0] = %q, want newest first", history[0].UserMessage)
	}

	cleared, err := chat.Reset("s1")
	if err != nil {
		t.Fatal(err)
	}
	if cleared != 2 {
		t.Errorf("cleared = %d, want 2", cleared)
	}

	history, err = chat.History("s1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Errorf("history after reset = %d entries", len(history))
	}

	// The other session is untouched.
	other, err := chat.History("other", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 1 {
		t.Errorf("other session history = %d entries, want 1", len(other))
	}
}
