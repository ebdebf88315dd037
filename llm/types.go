package llm

// MessageRole represents the role of a message in a prompt.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message represents a single prompt message. Provider-neutral.
type Message struct {
	Role    MessageRole
	Content string
}

// NewUserMessage creates a user message with the given text.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// Request represents a complete model invocation request.
type Request struct {
	Model       string
	Messages    []Message
	System      string
	MaxTokens   int64
	Temperature *float64 // Optional temperature override
}

// Response represents a complete model response.
type Response struct {
	Text       string
	Usage      *Usage
	StopReason string
}

// Usage represents token usage information from a model response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// StreamEvent represents one element of a streaming response.
type StreamEvent struct {
	Text  string // Partial output fragment; empty on the terminal event
	Usage *Usage // Set on the terminal event when the provider reports usage
	Done  bool
}
