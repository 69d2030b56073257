// Package config loads and validates the agent configuration from
// .pointer/config.yaml, with environment overrides for secrets and paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Pointer configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Agent loop settings
	Agent AgentConfig `yaml:"agent"`

	// Journey evaluation settings
	Journey JourneyConfig `yaml:"journey"`

	// Plan cache settings
	Cache CacheConfig `yaml:"cache"`

	// Persistence
	Store StoreConfig `yaml:"store"`

	// HTTP surface
	API APIConfig `yaml:"api"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the model collaborator.
type LLMConfig struct {
	Enabled  bool   `yaml:"enabled"`  // false = keyword-only planning
	Provider string `yaml:"provider"` // gemini, openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// AgentConfig configures the turn loop and tool execution.
type AgentConfig struct {
	ToolTimeout   string `yaml:"tool_timeout"`   // per-tool execution budget
	ParallelTools bool   `yaml:"parallel_tools"` // dispatch tools concurrently, results stay request-ordered
	HistoryLimit  int    `yaml:"history_limit"`  // default interactions returned by history queries
	IntentsPath   string `yaml:"intents_path"`   // optional corpus override file, hot-reloaded
}

// JourneyConfig configures phase evaluation.
type JourneyConfig struct {
	FreshnessDays int `yaml:"freshness_days"` // assessment staleness window
}

// CacheConfig configures the improvement plan cache.
type CacheConfig struct {
	PlanTTL      string `yaml:"plan_ttl"`
	PlanCapacity int    `yaml:"plan_capacity"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "pointer",
		Version: "0.3.0",

		LLM: LLMConfig{
			Enabled:  false,
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			Timeout:  "60s",
		},

		Agent: AgentConfig{
			ToolTimeout:   "10s",
			ParallelTools: false,
			HistoryLimit:  20,
			IntentsPath:   "",
		},

		Journey: JourneyConfig{
			FreshnessDays: 30,
		},

		Cache: CacheConfig{
			PlanTTL:      "24h",
			PlanCapacity: 32,
		},

		Store: StoreConfig{
			DatabasePath: filepath.Join(".pointer", "pointer.db"),
		},

		API: APIConfig{
			Addr: "127.0.0.1:7420",
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// DefaultPath returns the default config location under the workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".pointer", "config.yaml")
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults, not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API key from environment (check in priority order)
	if key := os.Getenv("POINTER_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Enabled = true
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
		c.LLM.Enabled = true
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
		c.LLM.Enabled = true
	}

	if provider := os.Getenv("POINTER_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}
	if model := os.Getenv("POINTER_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("POINTER_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if addr := os.Getenv("POINTER_ADDR"); addr != "" {
		c.API.Addr = addr
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetToolTimeout returns the per-tool execution budget as a duration.
func (c *Config) GetToolTimeout() time.Duration {
	d, err := time.ParseDuration(c.Agent.ToolTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetPlanTTL returns the plan cache TTL as a duration.
func (c *Config) GetPlanTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.PlanTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// FreshnessWindow returns the assessment staleness window as a duration.
func (c *Config) FreshnessWindow() time.Duration {
	days := c.Journey.FreshnessDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"gemini", "openai"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.LLM.Enabled {
		return nil // keyword-only mode needs no credentials
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM enabled but no API key configured (set GEMINI_API_KEY, OPENAI_API_KEY, or POINTER_API_KEY)")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	return nil
}
