package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aschepis/backscratcher/chains/callable"
)

// fakeModel echoes the last user message, optionally failing a fixed number
// of times first.
type fakeModel struct {
	failures   int
	retryable  bool
	retryAfter *time.Duration
	calls      int
}

func (m *fakeModel) Predict(_ context.Context, req *Request) (*Response, error) {
	m.calls++
	if m.calls <= m.failures {
		if m.retryable {
			return nil, NewRateLimitError("slow down", m.retryAfter, nil)
		}
		return nil, NewProviderError("broken", nil)
	}
	return &Response{Text: "echo: " + req.Messages[len(req.Messages)-1].Content}, nil
}

func (m *fakeModel) Stream(ctx context.Context, req *Request) (Stream, error) {
	resp, err := m.Predict(ctx, req)
	if err != nil {
		return nil, err
	}
	var events []*StreamEvent
	for _, word := range strings.SplitAfter(resp.Text, " ") {
		events = append(events, &StreamEvent{Text: word})
	}
	events = append(events, &StreamEvent{Done: true})
	return &fakeStream{events: events, current: -1}, nil
}

type fakeStream struct {
	events  []*StreamEvent
	current int
}

func (s *fakeStream) Next() bool {
	if s.current+1 >= len(s.events) {
		return false
	}
	s.current++
	return true
}

func (s *fakeStream) Event() *StreamEvent { return s.events[s.current] }
func (s *fakeStream) Err() error          { return nil }
func (s *fakeStream) Close() error        { return nil }

func TestCallableInvoke(t *testing.T) {
	c := NewCallable("llm.predict", &fakeModel{}, "test-model")

	result, err := c.Invoke(context.Background(), []any{"hello"}, nil)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result != "echo: hello" {
		t.Errorf("result = %v, want %q", result, "echo: hello")
	}
}

func TestCallableRequiresPrompt(t *testing.T) {
	c := NewCallable("llm.predict", &fakeModel{}, "test-model")
	if _, err := c.Invoke(context.Background(), nil, nil); err == nil {
		t.Fatal("missing prompt should fail")
	}
}

func TestCallableStreamMatchesInvoke(t *testing.T) {
	c := NewCallable("llm.predict", &fakeModel{}, "test-model")

	streamer, ok := c.(callable.StreamInvoker)
	if !ok {
		t.Fatal("model callable should support streaming")
	}
	stream, err := streamer.InvokeStream(context.Background(), []any{"a few words"}, nil)
	if err != nil {
		t.Fatalf("InvokeStream() error = %v", err)
	}
	streamed, err := callable.Drain(stream)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if streamed != "echo: a few words" {
		t.Errorf("streamed = %q, want %q", streamed, "echo: a few words")
	}
}

func TestCallableBatchPreservesOrder(t *testing.T) {
	c := NewCallable("llm.predict", &fakeModel{}, "test-model")

	batcher, ok := c.(callable.BatchInvoker)
	if !ok {
		t.Fatal("model callable should support batching")
	}
	batch := []callable.Invocation{
		{Args: []any{"zero"}},
		{Args: []any{"one"}},
		{Args: []any{"two"}},
	}
	results, err := batcher.InvokeBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("InvokeBatch() error = %v", err)
	}
	for i, want := range []string{"echo: zero", "echo: one", "echo: two"} {
		if results[i] != want {
			t.Errorf("results[%d] = %v, want %q", i, results[i], want)
		}
	}
}

func TestCallableKwargsShapeRequest(t *testing.T) {
	var captured *Request
	capture := modelFunc(func(_ context.Context, req *Request) (*Response, error) {
		captured = req
		return &Response{Text: "ok"}, nil
	})

	c := NewCallable("llm.predict", capture, "default-model")
	_, err := c.Invoke(context.Background(), nil, map[string]any{
		"prompt":     "question",
		"system":     "be terse",
		"model":      "other-model",
		"max_tokens": 128,
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if captured.Model != "other-model" || captured.System != "be terse" || captured.MaxTokens != 128 {
		t.Errorf("request not shaped by kwargs: %+v", captured)
	}
}

// modelFunc adapts a function to the Model interface for tests.
type modelFunc func(ctx context.Context, req *Request) (*Response, error)

func (f modelFunc) Predict(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

func (f modelFunc) Stream(_ context.Context, _ *Request) (Stream, error) {
	return nil, errors.New("not streamable")
}
