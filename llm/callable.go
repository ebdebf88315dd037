package llm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/aschepis/backscratcher/chains/callable"
)

// modelCallable adapts a Model to the callable interface so chains can run
// prompt steps. It supports synchronous, streaming, and batched invocation.
type modelCallable struct {
	name         string
	model        Model
	defaultModel string
	batchLimit   int
}

// NewCallable adapts a Model into a chain callable registered under name.
// defaultModel is used when a step does not pass a "model" kwarg.
func NewCallable(name string, model Model, defaultModel string) callable.Callable {
	return &modelCallable{
		name:         name,
		model:        model,
		defaultModel: defaultModel,
		batchLimit:   4,
	}
}

func (m *modelCallable) Name() string { return m.name }

// Invoke runs a single prediction. The prompt is the first positional
// argument (or the "prompt" kwarg); "system", "model", "max_tokens", and
// "temperature" kwargs map onto the request.
func (m *modelCallable) Invoke(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	req, err := m.buildRequest(args, kwargs)
	if err != nil {
		return nil, err
	}
	resp, err := m.model.Predict(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Text, nil
}

// InvokeStream implements callable.StreamInvoker by bridging the model's
// event stream to fragment streaming.
func (m *modelCallable) InvokeStream(ctx context.Context, args []any, kwargs map[string]any) (callable.Stream, error) {
	req, err := m.buildRequest(args, kwargs)
	if err != nil {
		return nil, err
	}
	stream, err := m.model.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	return &modelStream{inner: stream}, nil
}

// InvokeBatch implements callable.BatchInvoker with bounded concurrent
// fan-out. Result order matches input order.
func (m *modelCallable) InvokeBatch(ctx context.Context, batch []callable.Invocation) ([]any, error) {
	results := make([]any, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.batchLimit)
	for i, inv := range batch {
		g.Go(func() error {
			result, err := m.Invoke(gctx, inv.Args, inv.Kwargs)
			if err != nil {
				return fmt.Errorf("batch item %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (m *modelCallable) buildRequest(args []any, kwargs map[string]any) (*Request, error) {
	prompt := ""
	if len(args) > 0 {
		prompt = fmt.Sprint(args[0])
	} else if p, ok := kwargs["prompt"]; ok {
		prompt = fmt.Sprint(p)
	}
	if prompt == "" {
		return nil, fmt.Errorf("%s: prompt is required", m.name)
	}

	req := &Request{
		Model:    m.defaultModel,
		Messages: []Message{NewUserMessage(prompt)},
	}
	if v, ok := kwargs["model"].(string); ok && v != "" {
		req.Model = v
	}
	if v, ok := kwargs["system"].(string); ok {
		req.System = v
	}
	switch v := kwargs["max_tokens"].(type) {
	case int:
		req.MaxTokens = int64(v)
	case int64:
		req.MaxTokens = v
	}
	if v, ok := kwargs["temperature"].(float64); ok {
		req.Temperature = &v
	}
	return req, nil
}

// modelStream exposes an llm.Stream as a callable fragment stream.
type modelStream struct {
	inner   Stream
	current string
}

func (s *modelStream) Next() bool {
	for s.inner.Next() {
		event := s.inner.Event()
		if event == nil || event.Done {
			continue
		}
		if event.Text == "" {
			continue
		}
		s.current = event.Text
		return true
	}
	return false
}

func (s *modelStream) Text() string { return s.current }

func (s *modelStream) Err() error { return s.inner.Err() }

func (s *modelStream) Close() error { return s.inner.Close() }
