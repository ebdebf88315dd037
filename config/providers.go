package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/chains/callable"
	"github.com/aschepis/backscratcher/chains/llm"
	llmanthropic "github.com/aschepis/backscratcher/chains/llm/anthropic"
	llmollama "github.com/aschepis/backscratcher/chains/llm/ollama"
	llmopenai "github.com/aschepis/backscratcher/chains/llm/openai"
)

// ProviderConfig converts the loaded configuration into the llm package's
// provider resolution config.
func (c *Config) ProviderConfig() *llm.ProviderConfig {
	return &llm.ProviderConfig{
		AnthropicAPIKey: c.Anthropic.APIKey,
		AnthropicModel:  c.Anthropic.Model,
		OllamaHost:      c.Ollama.Host,
		OllamaModel:     c.Ollama.Model,
		OpenAIAPIKey:    c.OpenAI.APIKey,
		OpenAIBaseURL:   c.OpenAI.BaseURL,
		OpenAIModel:     c.OpenAI.Model,
		OpenAIOrg:       c.OpenAI.Organization,
	}
}

// NewProviderRegistry builds the provider registry from the loaded
// configuration.
func (c *Config) NewProviderRegistry() *llm.ProviderRegistry {
	return llm.NewProviderRegistry(c.ProviderConfig(), c.LLMProviders)
}

// wrapModel applies the standard decoration to a provider client: retry with
// exponential backoff, then request/response logging on the outside so every
// attempt's final outcome is recorded.
func wrapModel(client llm.Model, logger zerolog.Logger) llm.Model {
	retried := llm.WithRetry(client, llm.DefaultRetryPolicy(), logger)
	return llm.WrapWithMiddleware(retried, llm.NewLoggingMiddleware(logger))
}

// RegisterModelCallables constructs a model client for every enabled provider
// and registers each as a callable named after the provider. Models are
// wrapped with retry and logging middleware.
func RegisterModelCallables(cfg *Config, reg *callable.Registry, logger zerolog.Logger) error {
	providers := cfg.NewProviderRegistry()

	if providers.IsEnabled(llm.ProviderAnthropic) {
		client, err := llmanthropic.NewClient(cfg.Anthropic.APIKey, logger)
		if err != nil {
			return fmt.Errorf("create anthropic client: %w", err)
		}
		model := wrapModel(client, logger)
		if err := reg.Register(llm.NewCallable(llm.ProviderAnthropic, model, cfg.Anthropic.Model)); err != nil {
			return err
		}
	}

	if providers.IsEnabled(llm.ProviderOpenAI) {
		client, err := llmopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.Organization)
		if err != nil {
			return fmt.Errorf("create openai client: %w", err)
		}
		model := wrapModel(client, logger)
		if err := reg.Register(llm.NewCallable(llm.ProviderOpenAI, model, cfg.OpenAI.Model)); err != nil {
			return err
		}
	}

	if providers.IsEnabled(llm.ProviderOllama) {
		client, err := llmollama.NewClient(cfg.Ollama.Host, cfg.Ollama.Model)
		if err != nil {
			return fmt.Errorf("create ollama client: %w", err)
		}
		model := wrapModel(client, logger)
		if err := reg.Register(llm.NewCallable(llm.ProviderOllama, model, cfg.Ollama.Model)); err != nil {
			return err
		}
	}

	return nil
}
