package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"chatbox/internal/config"
)

// OpenAICompleter calls an OpenAI-compatible chat-completions endpoint.
type OpenAICompleter struct {
	client openai.Client
	cfg    config.UpstreamConfig
}

// NewOpenAICompleter builds a completer for the configured provider.
func NewOpenAICompleter(cfg config.UpstreamConfig) *OpenAICompleter {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAICompleter{client: openai.NewClient(opts...), cfg: cfg}
}

// Complete sends a single-turn completion request and returns the first choice.
func (c *OpenAICompleter) Complete(ctx context.Context, message string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.cfg.Model,
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(message)},
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// upstreamStatus maps an upstream failure onto the HTTP status relayed to the
// client: the provider's own status when known, 502 otherwise.
func upstreamStatus(err error) int {
	var apierr *openai.Error
	if errors.As(err, &apierr) && apierr.StatusCode != 0 {
		return apierr.StatusCode
	}
	return http.StatusBadGateway
}
