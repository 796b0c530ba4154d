package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"prodnorm/internal/completion"
	"prodnorm/internal/config"
	"prodnorm/internal/domain"
	"prodnorm/internal/port"
	"prodnorm/internal/prompt"
)

func init() {
	completion.RegisterProvider("openai", func(cfg *config.CompletionConfig) (port.CompletionClient, error) {
		return NewClient(cfg), nil
	})
}

// Client implements port.CompletionClient using the OpenAI Chat Completions API.
type Client struct {
	api     *openai.Client
	model   string
	system  string
	limiter *rate.Limiter
}

// NewClient creates an OpenAI-based completion client from a completion config.
func NewClient(cfg *config.CompletionConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = "o4-mini"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   model,
		system:  prompt.SystemMessage,
		limiter: limiter,
	}
}

// Complete sends the prompt to the chat completions endpoint and returns the
// raw text of the first choice.
func (c *Client) Complete(ctx context.Context, userPrompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: 1,
	})
	if err != nil {
		if status, ok := statusCode(err); ok && status == http.StatusTooManyRequests {
			return "", completion.NewRateLimitError("openai", err, 0)
		}
		return "", fmt.Errorf("calling openai API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: %w", domain.ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// statusCode extracts the HTTP status from the SDK's error types.
func statusCode(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}
