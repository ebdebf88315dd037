package llm

import (
	"testing"
)

func TestProviderRegistryResolve(t *testing.T) {
	cfg := &ProviderConfig{
		AnthropicAPIKey: "key",
		AnthropicModel:  "claude-sonnet-4-20250514",
		OllamaModel:     "mistral",
	}

	tests := []struct {
		name     string
		enabled  []string
		provider string
		model    string
		want     ResolvedProvider
		wantErr  bool
	}{
		{
			name:     "explicit provider and model",
			enabled:  []string{ProviderAnthropic},
			provider: ProviderAnthropic,
			model:    "claude-opus-4-1",
			want:     ResolvedProvider{Provider: ProviderAnthropic, Model: "claude-opus-4-1"},
		},
		{
			name:     "empty model falls back to configured default",
			enabled:  []string{ProviderAnthropic},
			provider: ProviderAnthropic,
			want:     ResolvedProvider{Provider: ProviderAnthropic, Model: "claude-sonnet-4-20250514"},
		},
		{
			name:    "empty provider picks first enabled in preference order",
			enabled: []string{ProviderOllama, ProviderAnthropic},
			want:    ResolvedProvider{Provider: ProviderAnthropic, Model: "claude-sonnet-4-20250514"},
		},
		{
			name:     "disabled provider rejected",
			enabled:  []string{ProviderAnthropic},
			provider: ProviderOpenAI,
			wantErr:  true,
		},
		{
			name:     "provider without a model rejected",
			enabled:  []string{ProviderOpenAI},
			provider: ProviderOpenAI,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewProviderRegistry(cfg, tt.enabled)
			got, err := reg.Resolve(tt.provider, tt.model)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestProviderRegistryAutoEnable(t *testing.T) {
	reg := NewProviderRegistry(&ProviderConfig{OpenAIAPIKey: "key", OpenAIModel: "gpt-4o"}, nil)

	if !reg.IsEnabled(ProviderOpenAI) {
		t.Error("configured provider should be auto-enabled")
	}
	if reg.IsEnabled(ProviderAnthropic) {
		t.Error("unconfigured provider should stay disabled")
	}
}
