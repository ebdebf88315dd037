package llm

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggingMiddlewareRecordsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	model := WrapWithMiddleware(&fakeModel{}, NewLoggingMiddleware(logger))
	req := &Request{Model: "test-model", Messages: []Message{{Role: RoleUser, Content: "hi"}}}

	resp, err := model.Predict(context.Background(), req)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if resp.Text != "echo: hi" {
		t.Errorf("response = %q, want %q", resp.Text, "echo: hi")
	}

	out := buf.String()
	if !strings.Contains(out, "Model request completed") {
		t.Errorf("missing completion log entry, got: %s", out)
	}
	if !strings.Contains(out, `"model":"test-model"`) {
		t.Errorf("completion entry missing model field, got: %s", out)
	}
}

func TestLoggingMiddlewareRecordsErrorType(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	model := WrapWithMiddleware(&fakeModel{failures: 99, retryable: true}, NewLoggingMiddleware(logger))
	req := &Request{Model: "test-model", Messages: []Message{{Role: RoleUser, Content: "hi"}}}

	if _, err := model.Predict(context.Background(), req); !IsRateLimitError(err) {
		t.Fatalf("Predict() error = %v, want the rate limit error to pass through", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Model request failed") {
		t.Errorf("missing failure log entry, got: %s", out)
	}
	if !strings.Contains(out, `"errorType":"rate_limit"`) {
		t.Errorf("failure entry missing classified type, got: %s", out)
	}
}
