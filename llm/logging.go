package llm

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// NewLoggingMiddleware returns a Middleware that records every model call:
// the request at debug level and the outcome (token usage, stop reason) at
// info level. Errors are logged with their classified type.
func NewLoggingMiddleware(logger zerolog.Logger) Middleware {
	return &loggingMiddleware{
		logger: logger.With().Str("component", "llm_logging").Logger(),
	}
}

type loggingMiddleware struct {
	logger zerolog.Logger
}

func (l *loggingMiddleware) BeforeRequest(_ context.Context, req *Request) (*Request, error) {
	l.logger.Debug().
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Int64("maxTokens", req.MaxTokens).
		Msg("Sending model request")
	return req, nil
}

func (l *loggingMiddleware) AfterResponse(_ context.Context, req *Request, resp *Response) (*Response, error) {
	event := l.logger.Info().
		Str("model", req.Model).
		Str("stopReason", resp.StopReason)
	if resp.Usage != nil {
		event = event.
			Int64("inputTokens", resp.Usage.InputTokens).
			Int64("outputTokens", resp.Usage.OutputTokens)
	}
	event.Msg("Model request completed")
	return resp, nil
}

func (l *loggingMiddleware) OnError(_ context.Context, req *Request, err error) error {
	event := l.logger.Error().
		Err(err).
		Str("model", req.Model)
	var llmErr *Error
	if errors.As(err, &llmErr) {
		event = event.Str("errorType", string(llmErr.Type))
	}
	event.Msg("Model request failed")
	return nil
}
