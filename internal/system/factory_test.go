package system

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/config"
)

func TestBootInMemory(t *testing.T) {
	rt, err := Boot(context.Background(), Options{
		Workspace: t.TempDir(),
		Config:    config.DefaultConfig(),
		InMemory:  true,
		NoWatch:   true,
	})
	if err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	defer rt.Close()

	if rt.Store == nil || rt.Registry == nil || rt.Classifier == nil || rt.Chat == nil {
		t.Fatal("Boot() left core components nil")
	}
	if rt.Journey == nil || rt.Plans == nil || rt.Engine == nil || rt.Responder == nil {
		t.Fatal("Boot() left support components nil")
	}
	if rt.LLM != nil {
		t.Error("Boot() built an LLM client with llm.enabled = false")
	}
	if got := rt.Registry.Count(); got != 10 {
		t.Errorf("Registry.Count() = %d, want 10", got)
	}
}

func TestBootOpensSQLite(t *testing.T) {
	ws := t.TempDir()
	rt, err := Boot(context.Background(), Options{
		Workspace: ws,
		Config:    config.DefaultConfig(),
		NoWatch:   true,
	})
	if err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	defer rt.Close()

	dbPath := filepath.Join(ws, ".pointer", "pointer.db")
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file missing at %s: %v", dbPath, err)
	}
}

// Boot then a full conversational turn: the wired pipeline must answer a
// goal-setting message and persist the interaction.
func TestBootedRuntimeHandlesTurn(t *testing.T) {
	rt, err := Boot(context.Background(), Options{
		Workspace: t.TempDir(),
		Config:    config.DefaultConfig(),
		InMemory:  true,
		NoWatch:   true,
	})
	if err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	defer rt.Close()

	turn, err := rt.Chat.ProcessMessage(context.Background(), "boot-test", "我想学会Go语言")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if !strings.Contains(turn.Response, "Go语言") {
		t.Errorf("response %q does not mention the goal", turn.Response)
	}

	goals, err := rt.Store.ActiveGoals()
	if err != nil {
		t.Fatalf("ActiveGoals() error = %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("ActiveGoals() = %d goals, want 1", len(goals))
	}
}

func TestBootLoadsIntentsFile(t *testing.T) {
	ws := t.TempDir()
	intents := filepath.Join(ws, "intents.yaml")
	corpus := `intents:
  - type: progress_tracking
    keywords: ["进度", "progress"]
    tools: ["track_learning_progress"]
`
	if err := os.WriteFile(intents, []byte(corpus), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Agent.IntentsPath = "intents.yaml"

	rt, err := Boot(context.Background(), Options{
		Workspace: ws,
		Config:    cfg,
		InMemory:  true,
		NoWatch:   true,
	})
	if err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	defer rt.Close()

	intent := rt.Classifier.Classify("我的学习进度如何？")
	if intent.Type != "progress_tracking" {
		t.Errorf("Classify() type = %q, want progress_tracking", intent.Type)
	}
}

func TestBootRejectsBadIntentsFile(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "intents.yaml"), []byte(":\nnot yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Agent.IntentsPath = "intents.yaml"

	rt, err := Boot(context.Background(), Options{Workspace: ws, Config: cfg, InMemory: true})
	if err == nil {
		rt.Close()
		t.Fatal("Boot() accepted a malformed intents file")
	}
}

func TestCloseIsIdempotentOnNilParts(t *testing.T) {
	rt, err := Boot(context.Background(), Options{
		Workspace: t.TempDir(),
		Config:    config.DefaultConfig(),
		InMemory:  true,
		NoWatch:   true,
	})
	if err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
