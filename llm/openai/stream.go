package openai

import (
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aschepis/backscratcher/chains/llm"
)

// stream implements the llm.Stream interface over the SDK's chat completion
// stream.
type stream struct {
	inner   *openai.ChatCompletionStream
	current *llm.StreamEvent
	err     error
	done    bool
}

// Next advances to the next event, skipping chunks without content.
func (s *stream) Next() bool {
	if s.done {
		return false
	}
	for {
		resp, err := s.inner.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			s.current = &llm.StreamEvent{Done: true}
			return true
		}
		if err != nil {
			s.done = true
			s.err = mapError(err)
			return false
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			s.current = &llm.StreamEvent{Text: delta}
			return true
		}
	}
}

// Event returns the current event. Only valid after Next returned true.
func (s *stream) Event() *llm.StreamEvent {
	return s.current
}

// Err returns any error that terminated the stream.
func (s *stream) Err() error {
	return s.err
}

// Close releases the underlying connection.
func (s *stream) Close() error {
	return s.inner.Close()
}
