package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/aschepis/backscratcher/chains/llm"
)

// Client implements the llm.Model interface for Ollama's API.
type Client struct {
	client *api.Client
	model  string // Default model to use if not specified in request
}

// NewClient creates a new Ollama client.
// If host is empty, the environment default is used (OLLAMA_HOST or
// http://localhost:11434).
func NewClient(host, model string) (*Client, error) {
	var client *api.Client

	if host != "" {
		baseURL, err := parseHost(host)
		if err != nil {
			return nil, fmt.Errorf("invalid host: %w", err)
		}
		client = api.NewClient(baseURL, &http.Client{})
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// parseHost parses a host string into a URL, defaulting the scheme to http.
func parseHost(host string) (*url.URL, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

// Predict implements llm.Model.Predict.
func (c *Client) Predict(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	chatReq, err := c.buildRequest(req, false)
	if err != nil {
		return nil, err
	}

	var last api.ChatResponse
	text := ""
	err = c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		text += resp.Message.Content
		last = resp
		return nil
	})
	if err != nil {
		return nil, llm.NewProviderError("ollama chat request failed", err)
	}

	return &llm.Response{
		Text: text,
		Usage: &llm.Usage{
			InputTokens:  int64(last.Metrics.PromptEvalCount),
			OutputTokens: int64(last.Metrics.EvalCount),
		},
		StopReason: last.DoneReason,
	}, nil
}

// Stream implements llm.Model.Stream. The Ollama SDK exposes streaming
// through a per-chunk callback; the callback is bridged onto the pull-based
// llm.Stream interface via a channel.
func (c *Client) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	chatReq, err := c.buildRequest(req, true)
	if err != nil {
		return nil, err
	}
	return newStream(ctx, c.client, chatReq), nil
}

func (c *Client) buildRequest(req *llm.Request, streaming bool) (*api.ChatRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	messages := make([]api.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, api.Message{Role: string(msg.Role), Content: msg.Content})
	}

	stream := streaming
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  make(map[string]interface{}),
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		chatReq.Options["temperature"] = *req.Temperature
	}
	return chatReq, nil
}
