package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultInitialDelay is the default initial delay for exponential backoff.
	DefaultInitialDelay = 1 * time.Second
	// DefaultMaxInterval is the default maximum interval between retries.
	DefaultMaxInterval = 60 * time.Second
	// DefaultMaxElapsedTime is the default maximum total time spent retrying.
	DefaultMaxElapsedTime = 5 * time.Minute
)

// RetryPolicy configures the retry middleware.
type RetryPolicy struct {
	InitialDelay   time.Duration
	MaxInterval    time.Duration
	MaxElapsedTime time.Duration
}

// DefaultRetryPolicy returns the retry policy used when none is supplied.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay:   DefaultInitialDelay,
		MaxInterval:    DefaultMaxInterval,
		MaxElapsedTime: DefaultMaxElapsedTime,
	}
}

// WithRetry wraps a Model so that retryable failures (rate limits, transient
// network errors) are retried with exponential backoff. Rate limit errors
// carrying a retry-after hint wait at least that long before the next
// attempt. Streaming calls are not retried once the stream has started.
func WithRetry(model Model, policy RetryPolicy, logger zerolog.Logger) Model {
	return &retryModel{
		inner:  model,
		policy: policy,
		logger: logger.With().Str("component", "llm_retry").Logger(),
	}
}

type retryModel struct {
	inner  Model
	policy RetryPolicy
	logger zerolog.Logger
}

func (m *retryModel) Predict(ctx context.Context, req *Request) (*Response, error) {
	var resp *Response

	operation := func() error {
		var err error
		resp, err = m.inner.Predict(ctx, req)
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		if retryAfter := ExtractRetryAfter(err); retryAfter != nil {
			m.logger.Warn().Dur("retryAfter", *retryAfter).Msg("Rate limited; honoring retry-after")
			if waitErr := m.waitRetryAfter(ctx, *retryAfter); waitErr != nil {
				return backoff.Permanent(waitErr)
			}
			return err
		}
		m.logger.Warn().Err(err).Msg("Retryable model error")
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(m.newBackoff(), ctx))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Stream retries only the initial connection; events already delivered are
// never replayed.
func (m *retryModel) Stream(ctx context.Context, req *Request) (Stream, error) {
	var stream Stream

	operation := func() error {
		var err error
		stream, err = m.inner.Stream(ctx, req)
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		m.logger.Warn().Err(err).Msg("Retryable error opening model stream")
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(m.newBackoff(), ctx))
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// waitRetryAfter blocks for the server's retry-after hint before the backoff
// schedule resumes. Cancellation during the wait aborts the retry loop.
func (m *retryModel) waitRetryAfter(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *retryModel) newBackoff() backoff.BackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(m.policy.InitialDelay),
		backoff.WithMaxInterval(m.policy.MaxInterval),
		backoff.WithMaxElapsedTime(m.policy.MaxElapsedTime),
	)
}
