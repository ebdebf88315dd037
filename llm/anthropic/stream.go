package anthropic

import (
	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/aschepis/backscratcher/chains/llm"
)

// stream implements the llm.Stream interface over the SDK's SSE stream.
// Unlike the SDK stream, it only surfaces the events the llm package models:
// text deltas and the terminal usage event.
type stream struct {
	inner   *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current *llm.StreamEvent
	usage   llm.Usage
}

func newStream(inner *ssestream.Stream[anthropic.MessageStreamEventUnion]) *stream {
	return &stream{inner: inner}
}

// Next advances to the next event, skipping SDK events that carry neither
// text nor usage.
func (s *stream) Next() bool {
	for s.inner.Next() {
		switch event := s.inner.Current().AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := event.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				s.current = &llm.StreamEvent{Text: delta.Text}
				return true
			}
		case anthropic.MessageDeltaEvent:
			s.usage.OutputTokens = event.Usage.OutputTokens
		case anthropic.MessageStartEvent:
			s.usage.InputTokens = event.Message.Usage.InputTokens
		case anthropic.MessageStopEvent:
			usage := s.usage
			s.current = &llm.StreamEvent{Done: true, Usage: &usage}
			return true
		}
	}
	return false
}

// Event returns the current event. Only valid after Next returned true.
func (s *stream) Event() *llm.StreamEvent {
	return s.current
}

// Err returns any error that terminated the stream.
func (s *stream) Err() error {
	if err := s.inner.Err(); err != nil {
		return mapError(err)
	}
	return nil
}

// Close releases the underlying SSE connection.
func (s *stream) Close() error {
	return s.inner.Close()
}
