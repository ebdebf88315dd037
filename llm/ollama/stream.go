package ollama

import (
	"context"

	"github.com/ollama/ollama/api"

	"github.com/aschepis/backscratcher/chains/llm"
)

// stream bridges the Ollama SDK's callback-based streaming onto the
// pull-based llm.Stream interface. A goroutine runs the chat request and
// feeds events through a channel; Next pulls from it.
type stream struct {
	events  chan *llm.StreamEvent
	errs    chan error
	cancel  context.CancelFunc
	current *llm.StreamEvent
	err     error
	started bool
	done    bool
	client  *api.Client
	req     *api.ChatRequest
	ctx     context.Context
}

func newStream(ctx context.Context, client *api.Client, req *api.ChatRequest) *stream {
	streamCtx, cancel := context.WithCancel(ctx)
	return &stream{
		events: make(chan *llm.StreamEvent, 16),
		errs:   make(chan error, 1),
		cancel: cancel,
		client: client,
		req:    req,
		ctx:    streamCtx,
	}
}

// start launches the chat request. Called lazily on the first Next so
// constructing a stream does no work.
func (s *stream) start() {
	go func() {
		defer close(s.events)
		defer close(s.errs)

		err := s.client.Chat(s.ctx, s.req, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				if err := s.send(&llm.StreamEvent{Text: resp.Message.Content}); err != nil {
					return err
				}
			}
			if resp.Done {
				return s.send(&llm.StreamEvent{
					Done: true,
					Usage: &llm.Usage{
						InputTokens:  int64(resp.Metrics.PromptEvalCount),
						OutputTokens: int64(resp.Metrics.EvalCount),
					},
				})
			}
			return nil
		})
		if err != nil {
			s.errs <- llm.NewProviderError("ollama stream failed", err)
		}
	}()
}

// send delivers one event to the consumer. A consumer that closed the stream
// no longer drains the channel, so the send must abort on cancellation or the
// producer goroutine blocks forever.
func (s *stream) send(event *llm.StreamEvent) error {
	select {
	case s.events <- event:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// Next advances to the next event.
func (s *stream) Next() bool {
	if s.done {
		return false
	}
	if !s.started {
		s.started = true
		s.start()
	}

	event, ok := <-s.events
	if !ok {
		s.done = true
		s.err = <-s.errs
		return false
	}
	s.current = event
	return true
}

// Event returns the current event. Only valid after Next returned true.
func (s *stream) Event() *llm.StreamEvent {
	return s.current
}

// Err returns any error that terminated the stream.
func (s *stream) Err() error {
	return s.err
}

// Close stops the underlying request.
func (s *stream) Close() error {
	s.cancel()
	return nil
}
