// Package runtime runs configured chains on their cron schedules.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/chains/chain"
	"github.com/aschepis/backscratcher/chains/runs"
)

// DefaultRunTimeout bounds a single scheduled chain run.
const DefaultRunTimeout = 5 * time.Minute

// scheduledChain tracks one chain and its next fire time.
type scheduledChain struct {
	name     string
	chain    *chain.Chain
	schedule cron.Schedule
	next     time.Time
}

// Scheduler polls for chains whose cron schedule has come due and runs them,
// recording each run in the history store.
type Scheduler struct {
	store        *runs.Store
	pollInterval time.Duration
	runTimeout   time.Duration
	logger       zerolog.Logger
	chains       []*scheduledChain
}

// NewScheduler creates a scheduler. The store may be nil, in which case runs
// are not recorded.
func NewScheduler(store *runs.Store, pollInterval time.Duration, logger zerolog.Logger) (*Scheduler, error) {
	if pollInterval <= 0 {
		return nil, fmt.Errorf("pollInterval must be positive")
	}
	return &Scheduler{
		store:        store,
		pollInterval: pollInterval,
		runTimeout:   DefaultRunTimeout,
		logger:       logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// AddChain registers a chain under a standard 5-field cron spec.
func (s *Scheduler) AddChain(name, spec string, c *chain.Chain) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("chain %q: invalid schedule %q: %w", name, spec, err)
	}

	now := time.Now()
	s.chains = append(s.chains, &scheduledChain{
		name:     name,
		chain:    c,
		schedule: schedule,
		next:     schedule.Next(now),
	})
	s.logger.Info().Str("chain", name).Str("schedule", spec).Msg("Scheduled chain")
	return nil
}

// Start begins the scheduler polling loop. It blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().
		Dur("pollInterval", s.pollInterval).
		Int("numChains", len(s.chains)).
		Msg("Starting scheduler")

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped: context cancelled")
			return
		case <-ticker.C:
			s.RunDue(ctx, time.Now())
		}
	}
}

// RunDue runs every chain whose next fire time is at or before now, and
// returns the number of chains run.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	ran := 0
	for _, sc := range s.chains {
		if sc.next.After(now) {
			continue
		}
		sc.next = sc.schedule.Next(now)
		s.runChain(ctx, sc)
		ran++
	}
	return ran
}

// runChain executes one scheduled chain run and records the outcome.
func (s *Scheduler) runChain(ctx context.Context, sc *scheduledChain) {
	s.logger.Info().Str("chain", sc.name).Msg("Running scheduled chain")

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	startedAt := time.Now()
	cctx, err := sc.chain.Run(runCtx, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("chain", sc.name).Msg("Scheduled chain run failed")
	} else {
		s.logger.Info().Str("chain", sc.name).Msg("Scheduled chain run completed")
	}

	if s.store == nil {
		return
	}
	res := chain.RunResult{Context: cctx, Err: err}
	if _, recErr := s.store.RecordRun(ctx, sc.name, startedAt, res); recErr != nil {
		s.logger.Error().Err(recErr).Str("chain", sc.name).Msg("Failed to record scheduled run")
	}
}
