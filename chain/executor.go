package chain

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/chains/callable"
)

// executor is the invocation substrate: it dispatches a resolved step to its
// callable in the requested execution mode, applying the per-step timeout and
// translating failures into chain errors. It holds no per-run state.
type executor struct {
	stepTimeout time.Duration // zero means no per-step deadline
	logger      zerolog.Logger
}

func newExecutor(stepTimeout time.Duration, logger zerolog.Logger) *executor {
	return &executor{
		stepTimeout: stepTimeout,
		logger:      logger.With().Str("component", "executor").Logger(),
	}
}

// invokeSync runs the callable's synchronous form.
func (e *executor) invokeSync(ctx context.Context, step Step, c callable.Callable, args []any, kwargs map[string]any) (any, error) {
	stepCtx, cancel := e.stepContext(ctx)
	defer cancel()

	result, err := c.Invoke(stepCtx, args, kwargs)
	if err != nil {
		return nil, e.stepError(step, err)
	}
	return result, nil
}

// invokeAsync awaits the callable's asynchronous form when it has one; a
// callable without async support is invoked synchronously instead, so mixed
// chains still run end to end.
func (e *executor) invokeAsync(ctx context.Context, step Step, c callable.Callable, args []any, kwargs map[string]any) (any, error) {
	async, ok := c.(callable.AsyncInvoker)
	if !ok {
		return e.invokeSync(ctx, step, c, args, kwargs)
	}

	stepCtx, cancel := e.stepContext(ctx)
	defer cancel()

	select {
	case outcome, open := <-async.InvokeAsync(stepCtx, args, kwargs):
		if !open {
			return nil, NewStepExecutionError(step.Key, errors.New("async callable closed its outcome channel without a result"))
		}
		if outcome.Err != nil {
			return nil, e.stepError(step, outcome.Err)
		}
		return outcome.Value, nil
	case <-stepCtx.Done():
		return nil, e.stepError(step, stepCtx.Err())
	}
}

// invokeStream starts the callable's streaming form. Unlike async, there is
// no synchronous fallback: a caller asking to stream a callable that cannot
// stream gets an unsupported-mode error.
func (e *executor) invokeStream(ctx context.Context, step Step, c callable.Callable, args []any, kwargs map[string]any) (callable.Stream, error) {
	streamer, ok := c.(callable.StreamInvoker)
	if !ok {
		return nil, NewUnsupportedModeError(step.Key, c.Name(), callable.ModeStream)
	}

	// The stream outlives this call; the deadline context is cancelled by
	// the stream's Close.
	stepCtx, cancel := e.stepContext(ctx)
	stream, err := streamer.InvokeStream(stepCtx, args, kwargs)
	if err != nil {
		cancel()
		return nil, e.stepError(step, err)
	}
	return &cancelStream{Stream: stream, cancel: cancel}, nil
}

// stepContext derives the invocation context, applying the per-step timeout
// when one is configured.
func (e *executor) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.stepTimeout > 0 {
		return context.WithTimeout(ctx, e.stepTimeout)
	}
	return context.WithCancel(ctx)
}

// stepError classifies an invocation failure. Cancellation passes through
// untouched so callers can tell "the run was cancelled" from "this step
// failed"; a deadline overrun (step or run) becomes a timeout error;
// everything else is wrapped as a step execution failure.
func (e *executor) stepError(step Step, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		e.logger.Warn().Str("step", step.Key).Msg("Step exceeded deadline")
		return NewTimeoutError(step.Key, err)
	}
	var chainErr *Error
	if errors.As(err, &chainErr) {
		return err
	}
	return NewStepExecutionError(step.Key, err)
}

// cancelStream couples a stream with the cancel func of its invocation
// context so Close releases the deadline timer.
type cancelStream struct {
	callable.Stream
	cancel context.CancelFunc
}

func (s *cancelStream) Close() error {
	err := s.Stream.Close()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return err
}
