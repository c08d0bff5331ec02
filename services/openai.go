package services

import (
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// Supported chat/embedding providers. All of them speak the OpenAI API.
const (
	ProviderOpenAI     = "openai"
	ProviderOllama     = "ollama"
	ProviderOpenRouter = "openrouter"
	ProviderDeepseek   = "deepseek"
)

// ClientConfig selects the provider and its credentials
type ClientConfig struct {
	Provider      string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenRouterKey string
	DeepseekKey   string
	DeepseekBase  string
	OllamaURL     string
}

// NewOpenAIClient builds an OpenAI-compatible client for the configured provider
func NewOpenAIClient(cfg ClientConfig) (*openai.Client, error) {
	switch cfg.Provider {
	case ProviderOllama:
		config := openai.DefaultConfig("not-needed")
		config.BaseURL = cfg.OllamaURL
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434/v1"
		}
		return openai.NewClientWithConfig(config), nil

	case ProviderOpenRouter:
		if cfg.OpenRouterKey == "" {
			return nil, errors.New("OPENROUTER_API_KEY is not set")
		}
		config := openai.DefaultConfig(cfg.OpenRouterKey)
		config.BaseURL = "https://openrouter.ai/api/v1"
		config.OrgID = "openrouter"
		return openai.NewClientWithConfig(config), nil

	case ProviderDeepseek:
		if cfg.DeepseekKey == "" {
			return nil, errors.New("DEEPSEEK_API_KEY is not set")
		}
		config := openai.DefaultConfig(cfg.DeepseekKey)
		config.BaseURL = cfg.DeepseekBase
		if config.BaseURL == "" {
			config.BaseURL = "https://api.deepseek.com/v1"
		}
		return openai.NewClientWithConfig(config), nil

	case ProviderOpenAI, "":
		if cfg.OpenAIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		config := openai.DefaultConfig(cfg.OpenAIKey)
		if cfg.OpenAIBaseURL != "" {
			config.BaseURL = cfg.OpenAIBaseURL
		}
		return openai.NewClientWithConfig(config), nil

	default:
		return nil, errors.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
