package callable

import (
	"context"
)

// Callable is a named unit of work that chains can invoke. Every callable
// supports at least a synchronous invocation; the optional capability
// interfaces below advertise additional execution modes.
type Callable interface {
	// Name returns the identifier the callable is registered under.
	Name() string

	// Invoke runs the callable synchronously with the given positional and
	// keyword arguments and returns its result.
	Invoke(ctx context.Context, args []any, kwargs map[string]any) (any, error)
}

// AsyncInvoker is implemented by callables that can run without blocking the
// caller. InvokeAsync returns immediately; the single Outcome is delivered on
// the returned channel, which is closed afterwards.
type AsyncInvoker interface {
	Callable

	InvokeAsync(ctx context.Context, args []any, kwargs map[string]any) <-chan Outcome
}

// StreamInvoker is implemented by callables that can produce their result
// incrementally as a sequence of string fragments.
type StreamInvoker interface {
	Callable

	// InvokeStream starts the callable and returns a one-shot stream of
	// partial output. The concatenation of all fragments equals the value
	// a synchronous Invoke would have returned.
	InvokeStream(ctx context.Context, args []any, kwargs map[string]any) (Stream, error)
}

// BatchInvoker is implemented by callables with a native batched form,
// mapping N independent invocations to N results in input order.
type BatchInvoker interface {
	Callable

	InvokeBatch(ctx context.Context, batch []Invocation) ([]any, error)
}

// Invocation is one bound argument set within a batched call.
type Invocation struct {
	Args   []any
	Kwargs map[string]any
}

// Outcome is the result of one asynchronous invocation: either a value or
// an error, never both.
type Outcome struct {
	Value any
	Err   error
}

// Mode identifies an execution mode a callable may support.
type Mode string

const (
	ModeSync   Mode = "sync"
	ModeAsync  Mode = "async"
	ModeStream Mode = "stream"
	ModeBatch  Mode = "batch"
)

// Supports reports whether the callable implements the given execution mode.
// Synchronous invocation is part of the Callable contract and is always
// supported.
func Supports(c Callable, mode Mode) bool {
	switch mode {
	case ModeSync:
		return true
	case ModeAsync:
		_, ok := c.(AsyncInvoker)
		return ok
	case ModeStream:
		_, ok := c.(StreamInvoker)
		return ok
	case ModeBatch:
		_, ok := c.(BatchInvoker)
		return ok
	default:
		return false
	}
}

// Modes returns all execution modes the callable supports.
func Modes(c Callable) []Mode {
	modes := []Mode{ModeSync}
	for _, m := range []Mode{ModeAsync, ModeStream, ModeBatch} {
		if Supports(c, m) {
			modes = append(modes, m)
		}
	}
	return modes
}
