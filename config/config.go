// Package config loads the YAML configuration: LLM provider credentials,
// chain definitions, schedules and the run-history database path. Values from
// the config file are merged onto built-in defaults; a handful of settings can
// additionally be overridden from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// AnthropicConfig represents configuration for the Anthropic LLM provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty"` // Anthropic API key
	Model  string `yaml:"model,omitempty"`   // Default model name
}

// OllamaConfig represents configuration for the Ollama LLM provider.
type OllamaConfig struct {
	Host  string `yaml:"host,omitempty"`  // Ollama host (default: "http://localhost:11434")
	Model string `yaml:"model,omitempty"` // Default model name
}

// OpenAIConfig represents configuration for the OpenAI LLM provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`      // OpenAI API key
	BaseURL      string `yaml:"base_url,omitempty"`     // Custom base URL (default: official API)
	Model        string `yaml:"model,omitempty"`        // Default model name
	Organization string `yaml:"organization,omitempty"` // Organization ID
}

// StepConfig is one step of a chain definition.
type StepConfig struct {
	Key      string         `yaml:"key"`
	Callable string         `yaml:"callable"`
	Args     []any          `yaml:"args,omitempty"`
	Kwargs   map[string]any `yaml:"kwargs,omitempty"`
	Ref      string         `yaml:"ref,omitempty"`
}

// ChainConfig defines one executable chain.
type ChainConfig struct {
	Name             string       `yaml:"name"`
	Steps            []StepConfig `yaml:"steps"`
	StepTimeout      string       `yaml:"step_timeout,omitempty"`      // e.g. "30s"
	RunTimeout       string       `yaml:"run_timeout,omitempty"`       // e.g. "5m"
	BatchConcurrency int          `yaml:"batch_concurrency,omitempty"` // parallel batch entries
	PartialResults   bool         `yaml:"partial_results,omitempty"`   // keep context on failure
	RefPrefix        string       `yaml:"ref_prefix,omitempty"`        // default "ref:"
	Schedule         string       `yaml:"schedule,omitempty"`          // cron spec, e.g. "*/15 * * * *"
	Disabled         bool         `yaml:"disabled,omitempty"`
}

// MCPServerConfig represents configuration for an MCP tool server.
type MCPServerConfig struct {
	Command string   `yaml:"command,omitempty"` // STDIO transport command
	Args    []string `yaml:"args,omitempty"`    // Additional args for the command
	Env     []string `yaml:"env,omitempty"`     // Environment variables for the process
}

// Config is the top-level configuration.
type Config struct {
	// LLM provider configurations
	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	Ollama    OllamaConfig    `yaml:"ollama,omitempty"`
	OpenAI    OpenAIConfig    `yaml:"openai,omitempty"`

	// Providers to enable; empty enables every configured provider.
	LLMProviders []string `yaml:"llm_providers,omitempty"`

	Chains     map[string]*ChainConfig     `yaml:"chains,omitempty"`
	MCPServers map[string]*MCPServerConfig `yaml:"mcp_servers,omitempty"`

	DBPath string `yaml:"db_path,omitempty"` // run-history sqlite path
}

// GetConfigPath returns the default config file path. Can be overridden via
// the CHAINS_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("CHAINS_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.chains/config.yaml"
	}
	return filepath.Join(homeDir, ".chains", "config.yaml")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// Load reads the config file at path, merges it onto defaults and validates
// the chain definitions.
func Load(path string) (*Config, error) {
	defaults := Config{
		Ollama: OllamaConfig{
			Host: "http://localhost:11434",
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
		},
		Chains:     make(map[string]*ChainConfig),
		MCPServers: make(map[string]*MCPServerConfig),
		DBPath:     "./chains.db",
	}

	expandedPath := expandPath(path)
	configYAML, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(configYAML, &fileConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := mergo.Merge(&defaults, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	applyEnvOverrides(&defaults)

	// Smart defaults per chain
	for name, chainCfg := range defaults.Chains {
		if chainCfg.Name == "" {
			chainCfg.Name = name
		}
	}

	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &defaults, nil
}

// Validate checks the chain definitions for structural problems that would
// otherwise only surface at execution time.
func (c *Config) Validate() error {
	for name, chainCfg := range c.Chains {
		if len(chainCfg.Steps) == 0 {
			return fmt.Errorf("chain %q has no steps", name)
		}
		for i, step := range chainCfg.Steps {
			if step.Key == "" {
				return fmt.Errorf("chain %q: step %d has no key", name, i)
			}
			if step.Callable == "" {
				return fmt.Errorf("chain %q: step %q has no callable", name, step.Key)
			}
		}
		for _, field := range []struct {
			name, value string
		}{
			{"step_timeout", chainCfg.StepTimeout},
			{"run_timeout", chainCfg.RunTimeout},
		} {
			if field.value == "" {
				continue
			}
			if _, err := time.ParseDuration(field.value); err != nil {
				return fmt.Errorf("chain %q: invalid %s %q: %w", name, field.name, field.value, err)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Anthropic.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.Host = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}
	if v := os.Getenv("CHAINS_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
}
