// ABOUTME: Completion client for the external LLM provider
// ABOUTME: Single synchronous chat call with a fixed server-side system instruction

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrCompletion is returned for every provider failure: network errors,
// non-2xx responses, and malformed or empty payloads. The detailed cause
// is logged server-side and wrapped, never shown to the end user.
var ErrCompletion = errors.New("completion provider failed")

// systemInstruction is prepended to every request server-side. It is fixed
// and never user-controlled.
const systemInstruction = "You are a helpful assistant."

const defaultTimeout = 60 * time.Second

// Config holds the completion provider configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client performs completion calls against an OpenAI-compatible provider.
// Safe for concurrent use.
type Client struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a completion client. The request timeout defaults to
// 60s when unset; there is deliberately no retry logic, a failed call is
// terminal for the request that made it.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger.With("component", "llm"),
	}
}

// Complete sends a single prompt to the provider and returns the reply
// text. The prompt is only the latest user turn; conversational memory
// lives in the persisted log, not in what is sent upstream.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.logger.Error("completion request failed", "model", c.model, "error", err)
		return "", fmt.Errorf("%w: %v", ErrCompletion, err)
	}

	if len(resp.Choices) == 0 {
		c.logger.Error("completion response has no choices", "model", c.model)
		return "", fmt.Errorf("%w: response has no choices", ErrCompletion)
	}

	reply := resp.Choices[0].Message.Content
	if reply == "" {
		c.logger.Error("completion response has empty content", "model", c.model)
		return "", fmt.Errorf("%w: response has empty content", ErrCompletion)
	}

	return reply, nil
}
