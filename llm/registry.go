package llm

import (
	"fmt"
	"sync"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
)

// ProviderConfig holds the configuration needed for provider resolution.
// This avoids import cycles by not importing the config package.
type ProviderConfig struct {
	AnthropicAPIKey string
	AnthropicModel  string
	OllamaHost      string
	OllamaModel     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIOrg       string
}

// ResolvedProvider is the outcome of resolving a provider/model selection
// against the configured credentials.
type ResolvedProvider struct {
	Provider string
	Model    string
}

// ProviderRegistry manages model provider selection and configuration
// resolution. Model construction is handled by the caller (the provider
// subpackages import this package, not the other way around).
type ProviderRegistry struct {
	mu               sync.RWMutex
	enabledProviders map[string]bool
	config           *ProviderConfig
}

// NewProviderRegistry creates a ProviderRegistry with the given config and
// enabled providers. An empty enabled list enables every provider that has
// configuration.
func NewProviderRegistry(providerConfig *ProviderConfig, enabledProviders []string) *ProviderRegistry {
	enabled := make(map[string]bool)
	if len(enabledProviders) == 0 {
		if providerConfig.AnthropicAPIKey != "" {
			enabled[ProviderAnthropic] = true
		}
		if providerConfig.OllamaHost != "" || providerConfig.OllamaModel != "" {
			enabled[ProviderOllama] = true
		}
		if providerConfig.OpenAIAPIKey != "" {
			enabled[ProviderOpenAI] = true
		}
	} else {
		for _, p := range enabledProviders {
			enabled[p] = true
		}
	}
	return &ProviderRegistry{
		enabledProviders: enabled,
		config:           providerConfig,
	}
}

// IsEnabled reports whether the given provider is enabled.
func (r *ProviderRegistry) IsEnabled(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabledProviders[provider]
}

// Config returns the provider configuration.
func (r *ProviderRegistry) Config() *ProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// Resolve picks the provider and model to use for a request. An empty
// provider selects the first enabled provider in a fixed preference order
// (anthropic, openai, ollama); an empty model falls back to the provider's
// configured default.
func (r *ProviderRegistry) Resolve(provider, model string) (ResolvedProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider == "" {
		for _, candidate := range []string{ProviderAnthropic, ProviderOpenAI, ProviderOllama} {
			if r.enabledProviders[candidate] {
				provider = candidate
				break
			}
		}
		if provider == "" {
			return ResolvedProvider{}, fmt.Errorf("no providers enabled")
		}
	}
	if !r.enabledProviders[provider] {
		return ResolvedProvider{}, fmt.Errorf("provider not enabled: %s", provider)
	}

	if model == "" {
		switch provider {
		case ProviderAnthropic:
			model = r.config.AnthropicModel
		case ProviderOllama:
			model = r.config.OllamaModel
		case ProviderOpenAI:
			model = r.config.OpenAIModel
		}
	}
	if model == "" {
		return ResolvedProvider{}, fmt.Errorf("no model configured for provider %s", provider)
	}

	return ResolvedProvider{Provider: provider, Model: model}, nil
}
