package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/chains/llm"
)

const defaultMaxTokens = 4096

// Client implements the llm.Model interface for Anthropic's API.
type Client struct {
	client *anthropic.Client
	logger zerolog.Logger
}

// NewClient creates a new Anthropic client with the given API key.
func NewClient(apiKey string, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: &client,
		logger: logger.With().Str("component", "anthropic").Logger(),
	}, nil
}

// Predict implements llm.Model.Predict.
func (c *Client) Predict(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	message, err := c.client.Messages.New(ctx, buildParams(req))
	if err != nil {
		return nil, mapError(err)
	}

	text := ""
	for _, blockUnion := range message.Content {
		if block, ok := blockUnion.AsAny().(anthropic.TextBlock); ok {
			text += block.Text
		}
	}

	usage := &llm.Usage{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}
	c.logger.Debug().
		Int64("input_tokens", usage.InputTokens).
		Int64("output_tokens", usage.OutputTokens).
		Str("stop_reason", string(message.StopReason)).
		Msg("Prediction completed")

	return &llm.Response{
		Text:       text,
		Usage:      usage,
		StopReason: string(message.StopReason),
	}, nil
}

// Stream implements llm.Model.Stream.
func (c *Client) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	stream := c.client.Messages.NewStreaming(ctx, buildParams(req))
	return newStream(stream), nil
}

// buildParams converts a provider-neutral request into Anthropic API params.
func buildParams(req *llm.Request) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == llm.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	return params
}

// mapError translates SDK errors into provider-neutral llm errors.
func mapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return llm.NewProviderError("anthropic request failed", err)
	}

	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		var retryAfter *time.Duration
		if apiErr.Response != nil {
			if header := apiErr.Response.Header.Get("Retry-After"); header != "" {
				if seconds, parseErr := time.ParseDuration(header + "s"); parseErr == nil {
					retryAfter = &seconds
				}
			}
		}
		return llm.NewRateLimitError("anthropic rate limit exceeded", retryAfter, err)
	case http.StatusBadRequest:
		return llm.NewInvalidRequestError("anthropic rejected the request", err)
	default:
		return llm.NewProviderError(fmt.Sprintf("anthropic request failed with status %d", apiErr.StatusCode), err)
	}
}
