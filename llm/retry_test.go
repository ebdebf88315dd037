package llm

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay:   time.Millisecond,
		MaxInterval:    5 * time.Millisecond,
		MaxElapsedTime: 250 * time.Millisecond,
	}
}

func TestRetryRecoversFromRateLimit(t *testing.T) {
	inner := &fakeModel{failures: 2, retryable: true}
	model := WithRetry(inner, fastRetryPolicy(), zerolog.Nop())

	resp, err := model.Predict(context.Background(), &Request{Messages: []Message{NewUserMessage("hi")}})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if resp.Text != "echo: hi" {
		t.Errorf("Text = %q, want %q", resp.Text, "echo: hi")
	}
	if inner.calls != 3 {
		t.Errorf("inner called %d times, want 3", inner.calls)
	}
}

func TestRetryHonorsRetryAfterHint(t *testing.T) {
	hint := 30 * time.Millisecond
	inner := &fakeModel{failures: 1, retryable: true, retryAfter: &hint}
	model := WithRetry(inner, fastRetryPolicy(), zerolog.Nop())

	started := time.Now()
	resp, err := model.Predict(context.Background(), &Request{Messages: []Message{NewUserMessage("hi")}})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if resp.Text != "echo: hi" {
		t.Errorf("Text = %q, want %q", resp.Text, "echo: hi")
	}
	if elapsed := time.Since(started); elapsed < hint {
		t.Errorf("retried after %v, want at least the %v hint", elapsed, hint)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2", inner.calls)
	}
}

func TestRetryAfterWaitAbortsOnCancel(t *testing.T) {
	hint := 10 * time.Second
	inner := &fakeModel{failures: 1000, retryable: true, retryAfter: &hint}
	model := WithRetry(inner, fastRetryPolicy(), zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := model.Predict(ctx, &Request{Messages: []Message{NewUserMessage("hi")}})
	if err == nil {
		t.Fatal("expected error")
	}
	if elapsed := time.Since(started); elapsed >= time.Second {
		t.Errorf("cancelled wait took %v, should abort well before the %v hint", elapsed, hint)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
}

func TestRetryDoesNotRetryPermanentErrors(t *testing.T) {
	inner := &fakeModel{failures: 1, retryable: false}
	model := WithRetry(inner, fastRetryPolicy(), zerolog.Nop())

	_, err := model.Predict(context.Background(), &Request{Messages: []Message{NewUserMessage("hi")}})
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("permanent error retried: inner called %d times, want 1", inner.calls)
	}
}

func TestRetryGivesUpAfterMaxElapsedTime(t *testing.T) {
	inner := &fakeModel{failures: 1000, retryable: true}
	model := WithRetry(inner, fastRetryPolicy(), zerolog.Nop())

	_, err := model.Predict(context.Background(), &Request{Messages: []Message{NewUserMessage("hi")}})
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if !IsRateLimitError(err) {
		t.Errorf("final error should be the rate limit error, got %v", err)
	}
}

func TestMiddlewareOrdering(t *testing.T) {
	var trail []string
	mw := func(name string) Middleware {
		return &traceMiddleware{name: name, trail: &trail}
	}

	model := WrapWithMiddleware(&fakeModel{}, mw("outer"), mw("inner"))
	if _, err := model.Predict(context.Background(), &Request{Messages: []Message{NewUserMessage("x")}}); err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	want := []string{"outer:before", "inner:before", "outer:after", "inner:after"}
	if len(trail) != len(want) {
		t.Fatalf("trail = %v, want %v", trail, want)
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Fatalf("trail = %v, want %v", trail, want)
		}
	}
}

type traceMiddleware struct {
	name  string
	trail *[]string
}

func (m *traceMiddleware) BeforeRequest(_ context.Context, req *Request) (*Request, error) {
	*m.trail = append(*m.trail, m.name+":before")
	return req, nil
}

func (m *traceMiddleware) AfterResponse(_ context.Context, _ *Request, resp *Response) (*Response, error) {
	*m.trail = append(*m.trail, m.name+":after")
	return resp, nil
}

func (m *traceMiddleware) OnError(_ context.Context, _ *Request, err error) error {
	*m.trail = append(*m.trail, m.name+":error")
	return err
}
