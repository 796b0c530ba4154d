package completion_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodnorm/internal/completion"
)

func TestNewRateLimitError(t *testing.T) {
	t.Run("explicit_retry_after", func(t *testing.T) {
		inner := errors.New("429 too many requests")
		err := completion.NewRateLimitError("openai", inner, 30)
		assert.Equal(t, 30*time.Second, err.RetryAfter)
		assert.Equal(t, "openai", err.Provider)
	})

	t.Run("zero_defaults_to_sixty_seconds", func(t *testing.T) {
		err := completion.NewRateLimitError("openai", errors.New("x"), 0)
		assert.Equal(t, 60*time.Second, err.RetryAfter)
	})

	t.Run("negative_defaults_to_sixty_seconds", func(t *testing.T) {
		err := completion.NewRateLimitError("anthropic", errors.New("x"), -5)
		assert.Equal(t, 60*time.Second, err.RetryAfter)
	})
}

func TestRateLimitError_Error(t *testing.T) {
	err := completion.NewRateLimitError("anthropic", errors.New("too fast"), 7)
	msg := err.Error()
	assert.Contains(t, msg, "anthropic rate limited")
	assert.Contains(t, msg, "7s")
	assert.Contains(t, msg, "too fast")
}

func TestRateLimitError_Unwrap(t *testing.T) {
	inner := errors.New("the original")
	err := completion.NewRateLimitError("openai", inner, 10)
	assert.ErrorIs(t, err, inner)

	var rl *completion.RateLimitError
	require.True(t, errors.As(error(err), &rl))
	assert.Same(t, err, rl)
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 45, completion.ParseRetryAfterHeader("45"))
	assert.Equal(t, 0, completion.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, completion.ParseRetryAfterHeader("Wed, 21 Oct 2026 07:28:00 GMT"))
	assert.Equal(t, 0, completion.ParseRetryAfterHeader("1.5"))
}
