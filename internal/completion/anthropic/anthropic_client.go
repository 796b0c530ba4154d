package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"prodnorm/internal/completion"
	"prodnorm/internal/config"
	"prodnorm/internal/domain"
	"prodnorm/internal/port"
	"prodnorm/internal/prompt"
)

func init() {
	completion.RegisterProvider("anthropic", func(cfg *config.CompletionConfig) (port.CompletionClient, error) {
		return NewClient(cfg), nil
	})
}

// Client implements port.CompletionClient using the Anthropic Messages API.
type Client struct {
	api     sdk.Client
	model   string
	system  string
	limiter *rate.Limiter
}

// NewClient creates an Anthropic-based completion client from a completion config.
func NewClient(cfg *config.CompletionConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &Client{
		api:     sdk.NewClient(opts...),
		model:   model,
		system:  prompt.SystemMessage,
		limiter: limiter,
	}
}

// Complete sends the prompt to the messages endpoint and returns the text of
// the first text content block.
func (c *Client) Complete(ctx context.Context, userPrompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	message, err := c.api.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 4096,
		System: []sdk.TextBlockParam{
			{Text: c.system},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := 0
			if apiErr.Response != nil {
				retryAfter = completion.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
			}
			return "", completion.NewRateLimitError("anthropic", err, retryAfter)
		}
		return "", fmt.Errorf("calling anthropic API: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic completion: %w", domain.ErrEmptyResponse)
}
