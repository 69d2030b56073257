// Package system assembles the application. Boot wires configuration,
// persistence, the tool registry, and the perception/agent/articulation
// layers into one Runtime that the CLI, the HTTP server, and the MCP
// server all share; nothing else in the module constructs the pipeline.
package system

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/agent"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/articulation"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/assessment"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/config"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/journey"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/perception"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/store"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools/learning"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// Store is the full persistence surface the runtime wires. Both
// store.LocalStore and store.MemoryStore satisfy it.
type Store interface {
	learning.Store
	journey.Store
	agent.Store

	SaveAssessment(a *types.AbilityAssessment) error
	AssessmentHistory(limit int) ([]*types.AbilityAssessment, error)
	AssessmentSnapshots(limit int) ([]types.AssessmentSnapshot, error)
	Counts() (types.EntityCounts, error)
	Close() error
}

// Options controls how Boot assembles the runtime.
type Options struct {
	// Workspace is the project directory. Config, database, and logs live
	// under its .pointer/ subdirectory. Empty means the current directory.
	Workspace string

	// ConfigPath overrides the default config location under Workspace.
	ConfigPath string

	// Config skips config loading entirely when set; tests use this.
	Config *config.Config

	// InMemory swaps SQLite for the in-memory store. Nothing survives
	// process exit.
	InMemory bool

	// NoWatch disables the intents-file watcher even when an intents
	// path is configured.
	NoWatch bool
}

// Runtime holds the wired application. Construct it with Boot and
// release it with Close.
type Runtime struct {
	Config     *config.Config
	Store      Store
	Registry   *tools.Registry
	Classifier *perception.Classifier
	Journey    *journey.Manager
	Plans      *assessment.PlanCache
	Engine     *assessment.Engine
	Parser     *articulation.Parser
	Responder  *articulation.Responder
	Chat       *agent.ChatService

	// LLM is nil when planning runs keyword-only.
	LLM perception.LLMClient

	workspace string
	watcher   *perception.CorpusWatcher
}

// Boot builds the runtime in dependency order. It fails fast on config
// and store errors; an unavailable LLM provider only logs a warning and
// leaves the keyword planner in charge.
func Boot(ctx context.Context, opts Options) (*Runtime, error) {
	ws := opts.Workspace
	if ws == "" {
		ws = "."
	}

	// 1. Configuration
	cfg := opts.Config
	if cfg == nil {
		path := opts.ConfigPath
		if path == "" {
			path = config.DefaultPath(ws)
		}
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	// 2. Logging
	if err := logging.Initialize(ws); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	logging.Boot("=== %s %s booting ===", cfg.Name, cfg.Version)
	logging.Boot("Workspace: %s", ws)

	// 3. Persistence
	var st Store
	if opts.InMemory {
		st = store.NewMemoryStore()
		logging.Boot("Store: in-memory")
	} else {
		dbPath := resolvePath(ws, cfg.Store.DatabasePath)
		local, err := store.NewLocalStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		st = local
		logging.Boot("Store: sqlite at %s", dbPath)
	}

	// 4. Assessment layer: scoring engine and plan cache
	engine := assessment.NewEngine()
	plans := assessment.NewPlanCache(cfg.Cache.PlanCapacity, cfg.GetPlanTTL())

	// 5. Journey manager
	jm := journey.NewManager(st, cfg.FreshnessWindow())

	// 6. Tool registry with the learning tool set
	reg := tools.NewRegistry()
	svc := learning.NewService(st, jm, plans)
	if err := learning.RegisterAll(reg, svc); err != nil {
		st.Close()
		return nil, fmt.Errorf("register tools: %w", err)
	}
	logging.Boot("Tools: %d registered", reg.Count())

	// 7. Intent classifier, hot-reloaded from the intents file when one
	// is configured
	classifier, watcher, err := bootClassifier(ctx, ws, cfg, opts.NoWatch)
	if err != nil {
		st.Close()
		return nil, err
	}

	// 8. LLM client. Planning degrades to keyword matching when the
	// provider is unusable, so failures here do not abort boot.
	var llm perception.LLMClient
	if cfg.LLM.Enabled {
		llm = bootLLM(cfg)
	} else {
		logging.Boot("LLM: disabled, keyword planning only")
	}

	// 9. Articulation and the chat service on top of everything above
	parser := articulation.NewParser()
	responder := articulation.NewResponder()
	coordinator := agent.NewCoordinator(reg, cfg.GetToolTimeout(), cfg.Agent.ParallelTools)
	chat, err := agent.NewChatService(agent.Deps{
		Classifier:   classifier,
		Coordinator:  coordinator,
		Responder:    responder,
		Parser:       parser,
		Registry:     reg,
		Store:        st,
		LLM:          llm,
		LLMTimeout:   cfg.GetLLMTimeout(),
		HistoryLimit: cfg.Agent.HistoryLimit,
	})
	if err != nil {
		if watcher != nil {
			watcher.Stop()
		}
		st.Close()
		return nil, fmt.Errorf("wire chat service: %w", err)
	}

	logging.Boot("=== boot complete ===")

	return &Runtime{
		Config:     cfg,
		Store:      st,
		Registry:   reg,
		Classifier: classifier,
		Journey:    jm,
		Plans:      plans,
		Engine:     engine,
		Parser:     parser,
		Responder:  responder,
		Chat:       chat,
		LLM:        llm,
		workspace:  ws,
		watcher:    watcher,
	}, nil
}

// bootClassifier loads the intent corpus and, unless disabled, starts
// the watcher that hot-reloads it on file changes.
func bootClassifier(ctx context.Context, ws string, cfg *config.Config, noWatch bool) (*perception.Classifier, *perception.CorpusWatcher, error) {
	if cfg.Agent.IntentsPath == "" {
		logging.Boot("Intents: built-in corpus")
		return perception.NewClassifier(), nil, nil
	}

	path := resolvePath(ws, cfg.Agent.IntentsPath)
	classifier, err := perception.NewClassifierFromFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load intents %s: %w", path, err)
	}
	logging.Boot("Intents: %s", path)

	if noWatch {
		return classifier, nil, nil
	}

	watcher, err := perception.NewCorpusWatcher(path, classifier)
	if err != nil {
		logging.WatchWarn("Corpus watcher unavailable: %v", err)
		return classifier, nil, nil
	}
	if err := watcher.Start(ctx); err != nil {
		logging.WatchWarn("Corpus watcher failed to start: %v", err)
		return classifier, nil, nil
	}

	return classifier, watcher, nil
}

// bootLLM resolves a provider and builds its client. Returns nil when no
// provider is usable.
func bootLLM(cfg *config.Config) perception.LLMClient {
	pc, err := perception.DetectProvider(cfg)
	if err != nil {
		logging.LLMWarn("LLM enabled but no provider resolved: %v", err)
		return nil
	}
	client, err := perception.NewClientFromConfig(pc)
	if err != nil {
		logging.LLMWarn("LLM client for %s failed: %v", pc.Provider, err)
		return nil
	}
	logging.Boot("LLM: %s ready", pc.Provider)
	return client
}

// Close releases the runtime in reverse boot order: watcher, LLM client,
// store, log files.
func (r *Runtime) Close() error {
	if r.watcher != nil {
		r.watcher.Stop()
	}
	if c, ok := r.LLM.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			logging.LLMWarn("LLM client close: %v", err)
		}
	}
	var err error
	if r.Store != nil {
		err = r.Store.Close()
	}
	logging.CloseAll()
	return err
}

// Workspace returns the directory the runtime was booted in.
func (r *Runtime) Workspace() string { return r.workspace }

func resolvePath(ws, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ws, p)
}
