package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/chains/callable"
	"github.com/aschepis/backscratcher/chains/chain"
)

// BuildChain compiles a chain definition into an executable chain bound to
// the given callable registry.
func BuildChain(cfg *ChainConfig, reg *callable.Registry, logger zerolog.Logger) (*chain.Chain, error) {
	opts, err := chainOptions(cfg)
	if err != nil {
		return nil, err
	}

	c := chain.New(reg, logger, opts...)
	for _, step := range cfg.Steps {
		err := c.AddStep(chain.Step{
			Key:      step.Key,
			Callable: step.Callable,
			Args:     step.Args,
			Kwargs:   step.Kwargs,
			Ref:      step.Ref,
		})
		if err != nil {
			return nil, fmt.Errorf("chain %q: add step %q: %w", cfg.Name, step.Key, err)
		}
	}
	return c, nil
}

func chainOptions(cfg *ChainConfig) ([]chain.Option, error) {
	var opts []chain.Option

	if cfg.StepTimeout != "" {
		d, err := time.ParseDuration(cfg.StepTimeout)
		if err != nil {
			return nil, fmt.Errorf("chain %q: invalid step_timeout: %w", cfg.Name, err)
		}
		opts = append(opts, chain.WithStepTimeout(d))
	}
	if cfg.RunTimeout != "" {
		d, err := time.ParseDuration(cfg.RunTimeout)
		if err != nil {
			return nil, fmt.Errorf("chain %q: invalid run_timeout: %w", cfg.Name, err)
		}
		opts = append(opts, chain.WithRunTimeout(d))
	}
	if cfg.BatchConcurrency > 0 {
		opts = append(opts, chain.WithBatchConcurrency(cfg.BatchConcurrency))
	}
	if cfg.PartialResults {
		opts = append(opts, chain.WithPartialResults())
	}
	if cfg.RefPrefix != "" {
		opts = append(opts, chain.WithRefPrefix(cfg.RefPrefix))
	}
	return opts, nil
}
