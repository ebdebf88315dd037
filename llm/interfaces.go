package llm

import (
	"context"
)

// Model provides a provider-neutral interface for invoking a language model.
// Implementations handle provider-specific request and response formats
// internally.
type Model interface {
	// Predict sends a request and returns the complete response.
	Predict(ctx context.Context, req *Request) (*Response, error)

	// Stream sends a request and returns a stream of events. The caller
	// reads from the returned Stream until it's done or an error occurs.
	Stream(ctx context.Context, req *Request) (Stream, error)
}

// Stream represents a streaming response from a model.
type Stream interface {
	// Next advances to the next event in the stream.
	// Returns false when the stream is complete or an error occurs.
	Next() bool

	// Event returns the current event.
	// Should only be called after Next() returns true.
	Event() *StreamEvent

	// Err returns any error that occurred during streaming.
	Err() error

	// Close closes the stream and releases resources.
	Close() error
}

// Middleware provides hooks for decorating Model calls. This allows adding
// cross-cutting concerns like logging or retries without modifying provider
// implementations.
type Middleware interface {
	// BeforeRequest is called before making an API request.
	// It can modify the request or return an error to abort the request.
	BeforeRequest(ctx context.Context, req *Request) (*Request, error)

	// AfterResponse is called after receiving a response.
	AfterResponse(ctx context.Context, req *Request, resp *Response) (*Response, error)

	// OnError is called when an error occurs.
	// It can return a modified error or nil to use the original error.
	OnError(ctx context.Context, req *Request, err error) error
}

// WrapWithMiddleware wraps a Model with middleware, applied in order.
func WrapWithMiddleware(model Model, middleware ...Middleware) Model {
	if len(middleware) == 0 {
		return model
	}
	return &middlewareModel{inner: model, middleware: middleware}
}

type middlewareModel struct {
	inner      Model
	middleware []Middleware
}

func (m *middlewareModel) Predict(ctx context.Context, req *Request) (*Response, error) {
	var err error
	for _, mw := range m.middleware {
		req, err = mw.BeforeRequest(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	resp, err := m.inner.Predict(ctx, req)
	if err != nil {
		for _, mw := range m.middleware {
			if mwErr := mw.OnError(ctx, req, err); mwErr != nil {
				err = mwErr
			}
		}
		return nil, err
	}

	for _, mw := range m.middleware {
		resp, err = mw.AfterResponse(ctx, req, resp)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (m *middlewareModel) Stream(ctx context.Context, req *Request) (Stream, error) {
	var err error
	for _, mw := range m.middleware {
		req, err = mw.BeforeRequest(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	stream, err := m.inner.Stream(ctx, req)
	if err != nil {
		for _, mw := range m.middleware {
			if mwErr := mw.OnError(ctx, req, err); mwErr != nil {
				err = mwErr
			}
		}
		return nil, err
	}
	return stream, nil
}
