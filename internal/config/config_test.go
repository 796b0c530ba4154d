package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodnorm/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw", cfg.Input.Dir)
	assert.Equal(t, []string{"reviews"}, cfg.Input.StripKeys)
	assert.Equal(t, "data/normalized/products.csv", cfg.Output.CSVPath)
	assert.Equal(t, "", cfg.Output.TemplatePath)

	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, 1, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 50, cfg.Pipeline.ProgressEvery)

	assert.Equal(t, "openai", cfg.Completion.Provider)
	assert.Equal(t, "o4-mini", cfg.Completion.Model)
	assert.Equal(t, 60, cfg.Completion.TimeoutSecs)
	assert.Zero(t, cfg.Completion.RPS)
	assert.Equal(t, 1, cfg.Completion.Burst)

	assert.Equal(t, "", cfg.Cache.Path)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.Equal(t, "noop", cfg.Notify.Provider)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PRODNORM_INPUT_DIR", "/srv/dumps")
	t.Setenv("PRODNORM_OUTPUT_CSV_PATH", "/srv/out/products.csv")
	t.Setenv("PRODNORM_PIPELINE_CONCURRENCY", "8")
	t.Setenv("PRODNORM_PIPELINE_MAX_RETRIES", "3")
	t.Setenv("PRODNORM_COMPLETION_PROVIDER", "anthropic")
	t.Setenv("PRODNORM_COMPLETION_API_KEY", "sk-test")
	t.Setenv("PRODNORM_COMPLETION_MODEL", "claude-sonnet-4-20250514")
	t.Setenv("PRODNORM_COMPLETION_RPS", "2.5")
	t.Setenv("PRODNORM_CACHE_PATH", "/srv/cache.db")
	t.Setenv("PRODNORM_S3_BUCKET", "product-dumps")
	t.Setenv("PRODNORM_NOTIFY_PROVIDER", "ses")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/dumps", cfg.Input.Dir)
	assert.Equal(t, "/srv/out/products.csv", cfg.Output.CSVPath)
	assert.Equal(t, 8, cfg.Pipeline.Concurrency)
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.Equal(t, "anthropic", cfg.Completion.Provider)
	assert.Equal(t, "sk-test", cfg.Completion.APIKey)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Completion.Model)
	assert.Equal(t, 2.5, cfg.Completion.RPS)
	assert.Equal(t, "/srv/cache.db", cfg.Cache.Path)
	assert.Equal(t, "product-dumps", cfg.S3.Bucket)
	assert.Equal(t, "ses", cfg.Notify.Provider)
}

func TestLoad_StripKeysParsing(t *testing.T) {
	t.Run("comma_separated_with_spaces", func(t *testing.T) {
		t.Setenv("PRODNORM_INPUT_STRIP_KEYS", "reviews, ratings , questions")
		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"reviews", "ratings", "questions"}, cfg.Input.StripKeys)
	})

	t.Run("whitespace_value_disables_stripping", func(t *testing.T) {
		t.Setenv("PRODNORM_INPUT_STRIP_KEYS", " ")
		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.Input.StripKeys)
	})

	t.Run("stray_commas_ignored", func(t *testing.T) {
		t.Setenv("PRODNORM_INPUT_STRIP_KEYS", ",reviews,,")
		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"reviews"}, cfg.Input.StripKeys)
	})
}
