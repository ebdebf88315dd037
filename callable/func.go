package callable

import (
	"context"
)

// InvokeFunc is the signature for plain-function callables.
type InvokeFunc func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// funcCallable wraps a plain function as a Callable.
type funcCallable struct {
	name string
	fn   InvokeFunc
}

// Func wraps a plain function as a synchronous-only Callable.
func Func(name string, fn InvokeFunc) Callable {
	return &funcCallable{name: name, fn: fn}
}

func (f *funcCallable) Name() string { return f.name }

func (f *funcCallable) Invoke(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	return f.fn(ctx, args, kwargs)
}

// StreamFuncCallable wraps a function pair as a Callable that also streams.
type streamFuncCallable struct {
	funcCallable
	stream func(ctx context.Context, args []any, kwargs map[string]any) (Stream, error)
}

// StreamFunc wraps an invoke function and a stream function as a Callable
// that supports both synchronous and streaming invocation.
func StreamFunc(
	name string,
	fn InvokeFunc,
	stream func(ctx context.Context, args []any, kwargs map[string]any) (Stream, error),
) StreamInvoker {
	return &streamFuncCallable{
		funcCallable: funcCallable{name: name, fn: fn},
		stream:       stream,
	}
}

func (f *streamFuncCallable) InvokeStream(ctx context.Context, args []any, kwargs map[string]any) (Stream, error) {
	return f.stream(ctx, args, kwargs)
}

// batchFuncCallable wraps a function pair as a Callable with a native batch
// form.
type batchFuncCallable struct {
	funcCallable
	batch func(ctx context.Context, batch []Invocation) ([]any, error)
}

// BatchFunc wraps an invoke function and a batch function as a Callable that
// supports both synchronous and batched invocation.
func BatchFunc(
	name string,
	fn InvokeFunc,
	batch func(ctx context.Context, batch []Invocation) ([]any, error),
) BatchInvoker {
	return &batchFuncCallable{
		funcCallable: funcCallable{name: name, fn: fn},
		batch:        batch,
	}
}

func (f *batchFuncCallable) InvokeBatch(ctx context.Context, batch []Invocation) ([]any, error) {
	return f.batch(ctx, batch)
}

// asyncFuncCallable derives an asynchronous form from a synchronous function
// by running it on its own goroutine.
type asyncFuncCallable struct {
	funcCallable
}

// AsyncFunc wraps a plain function as a Callable whose asynchronous form runs
// the function on a goroutine and delivers a single Outcome.
func AsyncFunc(name string, fn InvokeFunc) AsyncInvoker {
	return &asyncFuncCallable{funcCallable{name: name, fn: fn}}
}

func (f *asyncFuncCallable) InvokeAsync(ctx context.Context, args []any, kwargs map[string]any) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		v, err := f.fn(ctx, args, kwargs)
		out <- Outcome{Value: v, Err: err}
	}()
	return out
}
