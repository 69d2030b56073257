package perception

import (
	"fmt"
	"os"
	"time"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/config"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// ProviderConfig holds the resolved provider and API key.
type ProviderConfig struct {
	Provider Provider
	APIKey   string
	Model    string // Optional model override
	BaseURL  string // Optional endpoint override (OpenAI-compatible only)
	Timeout  time.Duration
}

// DetectProvider resolves the provider from config first, then environment.
// Env priority: GEMINI_API_KEY > OPENAI_API_KEY > POINTER_API_KEY.
func DetectProvider(cfg *config.Config) (*ProviderConfig, error) {
	if cfg != nil && cfg.LLM.APIKey != "" {
		return &ProviderConfig{
			Provider: Provider(cfg.LLM.Provider),
			APIKey:   cfg.LLM.APIKey,
			Model:    cfg.LLM.Model,
			BaseURL:  cfg.LLM.BaseURL,
			Timeout:  cfg.GetLLMTimeout(),
		}, nil
	}

	// Fall back to environment variables
	providers := []struct {
		envVar   string
		provider Provider
	}{
		{"GEMINI_API_KEY", ProviderGemini},
		{"OPENAI_API_KEY", ProviderOpenAI},
		{"POINTER_API_KEY", ProviderGemini},
	}

	for _, p := range providers {
		if key := os.Getenv(p.envVar); key != "" {
			return &ProviderConfig{
				Provider: p.provider,
				APIKey:   key,
			}, nil
		}
	}

	return nil, fmt.Errorf("no API key found; configure .pointer/config.yaml or set GEMINI_API_KEY or OPENAI_API_KEY")
}

// NewClientFromEnv creates an LLM client from environment variables alone.
func NewClientFromEnv() (LLMClient, error) {
	pc, err := DetectProvider(nil)
	if err != nil {
		return nil, err
	}
	return NewClientFromConfig(pc)
}

// NewClientFromConfig creates an LLM client from a provider config.
func NewClientFromConfig(pc *ProviderConfig) (LLMClient, error) {
	switch pc.Provider {
	case ProviderGemini:
		gc := DefaultGeminiConfig(pc.APIKey)
		if pc.Model != "" {
			gc.Model = pc.Model
		}
		return NewGeminiClientWithConfig(gc)

	case ProviderOpenAI:
		oc := DefaultOpenAIConfig(pc.APIKey)
		if pc.Model != "" {
			oc.Model = pc.Model
		}
		if pc.BaseURL != "" {
			oc.BaseURL = pc.BaseURL
		}
		if pc.Timeout > 0 {
			oc.Timeout = pc.Timeout
		}
		return NewOpenAIClientWithConfig(oc), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (valid: gemini, openai)", pc.Provider)
	}
}
