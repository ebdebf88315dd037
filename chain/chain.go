package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aschepis/backscratcher/chains/callable"
)

// Chain is an ordered pipeline of steps. Steps are added at build time and
// frozen at the first execution; a Chain may then be executed any number of
// times, each run against its own fresh Context.
//
// A single run is strictly sequential across steps. Concurrency exists only
// across independent runs (RunBatchAsync) and inside a single step's
// invocation (async and streaming callables).
type Chain struct {
	registry *callable.Registry
	resolver *Resolver
	exec     *executor
	logger   zerolog.Logger
	opts     options

	steps     []Step
	published map[string]struct{} // step keys and refs already claimed

	mu     sync.Mutex
	frozen bool
}

// options holds build-time chain configuration.
type options struct {
	stepTimeout    time.Duration
	runTimeout     time.Duration
	batchLimit     int
	partialResults bool
	refPrefix      string
}

// Option configures a Chain at construction time.
type Option func(*options)

// WithStepTimeout bounds every step invocation. An overrun fails that step
// with a timeout error; completed steps are unaffected.
func WithStepTimeout(d time.Duration) Option {
	return func(o *options) { o.stepTimeout = d }
}

// WithRunTimeout bounds a whole run. The step in flight (or about to be
// issued) when the deadline passes fails with a timeout error.
func WithRunTimeout(d time.Duration) Option {
	return func(o *options) { o.runTimeout = d }
}

// WithBatchConcurrency limits how many batch runs execute at once in
// RunBatchAsync. Defaults to DefaultBatchConcurrency.
func WithBatchConcurrency(n int) Option {
	return func(o *options) { o.batchLimit = n }
}

// WithPartialResults returns the context accumulated so far alongside the
// error when a run fails, instead of discarding it.
func WithPartialResults() Option {
	return func(o *options) { o.partialResults = true }
}

// WithRefPrefix overrides the reference expression marker (default "ref:").
func WithRefPrefix(prefix string) Option {
	return func(o *options) { o.refPrefix = prefix }
}

// DefaultBatchConcurrency is the fan-out limit for RunBatchAsync when none
// is configured.
const DefaultBatchConcurrency = 8

// New creates an empty chain bound to a callable registry.
func New(registry *callable.Registry, logger zerolog.Logger, opts ...Option) *Chain {
	o := options{batchLimit: DefaultBatchConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	logger = logger.With().Str("component", "chain").Logger()
	return &Chain{
		registry:  registry,
		resolver:  NewResolverWithPrefix(o.refPrefix),
		exec:      newExecutor(o.stepTimeout, logger),
		logger:    logger,
		opts:      o,
		published: make(map[string]struct{}),
	}
}

// AddStep appends a step to the chain. It fails if the step's key (or ref)
// collides with a key or ref already claimed by an earlier step, or if the
// chain has already started executing.
func (c *Chain) AddStep(step Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return fmt.Errorf("chain already executing: steps are added at build time only")
	}
	if step.Key == "" {
		return fmt.Errorf("step key cannot be empty")
	}
	if step.Callable == "" {
		return fmt.Errorf("step %q has no callable", step.Key)
	}
	if _, taken := c.published[step.Key]; taken {
		return NewDuplicateKeyError(step.Key)
	}
	if step.Ref != "" && step.Ref != step.Key {
		if _, taken := c.published[step.Ref]; taken {
			return NewDuplicateKeyError(step.Ref)
		}
	}

	c.published[step.Key] = struct{}{}
	if step.Ref != "" {
		c.published[step.Ref] = struct{}{}
	}
	c.steps = append(c.steps, step)
	return nil
}

// Steps returns a copy of the chain's step list.
func (c *Chain) Steps() []Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// RunResult is the outcome of one run: the final context on success, the
// error otherwise. With WithPartialResults both may be set.
type RunResult struct {
	Context *Context
	Err     error
}

// Run executes all steps once, in declared order, against a fresh context
// seeded with initial. The first failing step aborts the run.
func (c *Chain) Run(ctx context.Context, initial map[string]any) (*Context, error) {
	c.freeze()
	runCtx, cancel := c.runContext(ctx)
	defer cancel()
	return c.run(runCtx, initial, false)
}

// RunAsync executes the chain on its own goroutine and delivers a single
// RunResult on the returned channel, which is closed afterwards. Steps whose
// callables support asynchronous invocation are awaited through that path;
// the ordering guarantee is identical to Run.
func (c *Chain) RunAsync(ctx context.Context, initial map[string]any) <-chan RunResult {
	c.freeze()
	out := make(chan RunResult, 1)
	go func() {
		defer close(out)
		runCtx, cancel := c.runContext(ctx)
		defer cancel()
		cctx, err := c.run(runCtx, initial, true)
		out <- RunResult{Context: cctx, Err: err}
	}()
	return out
}

// RunStream executes all steps but the last to completion, then starts the
// final step in streaming mode and returns its fragment stream. The
// concatenation of all fragments equals the final value Run would have
// produced. The stream is one-shot; re-streaming requires a fresh call.
//
// The final step's callable is probed before any work happens: a chain whose
// last callable cannot stream fails fast with an unsupported-mode error.
func (c *Chain) RunStream(ctx context.Context, initial map[string]any) (callable.Stream, error) {
	c.freeze()
	steps := c.Steps()
	if len(steps) == 0 {
		return nil, fmt.Errorf("chain has no steps")
	}

	last := steps[len(steps)-1]
	target, err := c.registry.Lookup(last.Callable)
	if err != nil {
		return nil, NewStepExecutionError(last.Key, err)
	}
	if !callable.Supports(target, callable.ModeStream) {
		return nil, NewUnsupportedModeError(last.Key, target.Name(), callable.ModeStream)
	}

	runCtx, cancel := c.runContext(ctx)

	cctx := NewContext()
	if err := cctx.Seed(initial); err != nil {
		cancel()
		return nil, err
	}
	for _, step := range steps[:len(steps)-1] {
		if err := c.runStep(runCtx, step, cctx, false); err != nil {
			cancel()
			return nil, err
		}
	}

	args, kwargs, err := c.resolver.ResolveStep(last, cctx)
	if err != nil {
		cancel()
		return nil, err
	}
	stream, err := c.exec.invokeStream(runCtx, last, target, args, kwargs)
	if err != nil {
		cancel()
		return nil, err
	}
	// The run context stays alive for the duration of the stream.
	return &cancelStream{Stream: stream, cancel: cancel}, nil
}

// RunBatch executes one independent run per initial context, sequentially,
// and returns results in input order. Runs share no state; one run's failure
// is recorded at its index and does not abort its siblings.
func (c *Chain) RunBatch(ctx context.Context, initials []map[string]any) []RunResult {
	c.freeze()
	results := make([]RunResult, len(initials))
	for i, initial := range initials {
		runCtx, cancel := c.runContext(ctx)
		cctx, err := c.run(runCtx, initial, false)
		cancel()
		results[i] = RunResult{Context: cctx, Err: err}
	}
	return results
}

// RunBatchAsync is RunBatch with the runs executing concurrently, bounded by
// the configured batch concurrency. Results are collected in submission
// order regardless of completion order.
func (c *Chain) RunBatchAsync(ctx context.Context, initials []map[string]any) []RunResult {
	c.freeze()
	results := make([]RunResult, len(initials))

	// Failures are reported per index, never via the group error, so one
	// run's failure cannot cancel its siblings.
	g := new(errgroup.Group)
	g.SetLimit(c.opts.batchLimit)
	for i, initial := range initials {
		g.Go(func() error {
			runCtx, cancel := c.runContext(ctx)
			defer cancel()
			cctx, err := c.run(runCtx, initial, true)
			results[i] = RunResult{Context: cctx, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// run drives one full pass over the steps. async selects the asynchronous
// invocation path for capable callables.
func (c *Chain) run(ctx context.Context, initial map[string]any, async bool) (*Context, error) {
	cctx := NewContext()
	if err := cctx.Seed(initial); err != nil {
		return nil, err
	}

	for _, step := range c.Steps() {
		if err := ctx.Err(); err != nil {
			return c.failed(cctx, c.runAborted(step, err))
		}
		if err := c.runStep(ctx, step, cctx, async); err != nil {
			return c.failed(cctx, err)
		}
	}
	return cctx, nil
}

// runStep resolves, invokes, and publishes a single step.
func (c *Chain) runStep(ctx context.Context, step Step, cctx *Context, async bool) error {
	args, kwargs, err := c.resolver.ResolveStep(step, cctx)
	if err != nil {
		return err
	}

	target, err := c.registry.Lookup(step.Callable)
	if err != nil {
		return NewStepExecutionError(step.Key, err)
	}

	started := time.Now()
	var result any
	if async {
		result, err = c.exec.invokeAsync(ctx, step, target, args, kwargs)
	} else {
		result, err = c.exec.invokeSync(ctx, step, target, args, kwargs)
	}
	if err != nil {
		return err
	}
	c.logger.Debug().
		Str("step", step.Key).
		Str("callable", step.Callable).
		Dur("elapsed", time.Since(started)).
		Msg("Step completed")

	return c.publish(step, cctx, result)
}

// publish writes the step result under its key, and additionally under its
// ref when one is declared.
func (c *Chain) publish(step Step, cctx *Context, result any) error {
	if err := cctx.set(step.Key, result); err != nil {
		return &Error{Type: ErrorTypeDuplicateKey, Step: step.Key, Key: step.Key, Message: err.Error()}
	}
	if step.Ref != "" && step.Ref != step.Key {
		if err := cctx.set(step.Ref, result); err != nil {
			return &Error{Type: ErrorTypeDuplicateKey, Step: step.Key, Key: step.Ref, Message: err.Error()}
		}
	}
	return nil
}

// failed applies the partial-result policy: by default the accumulated
// context is discarded on failure.
func (c *Chain) failed(cctx *Context, err error) (*Context, error) {
	if c.opts.partialResults {
		return cctx, err
	}
	return nil, err
}

// runAborted classifies a context error observed between steps: a run
// deadline overrun is attributed to the step about to be issued, plain
// cancellation passes through.
func (c *Chain) runAborted(next Step, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(next.Key, err)
	}
	return err
}

// runContext derives the per-run context, applying the run timeout when
// configured.
func (c *Chain) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.runTimeout > 0 {
		return context.WithTimeout(ctx, c.opts.runTimeout)
	}
	return context.WithCancel(ctx)
}

// freeze marks the step list immutable. Called by every execution entry
// point.
func (c *Chain) freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}
