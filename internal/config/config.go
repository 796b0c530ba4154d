package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Input      InputConfig
	Output     OutputConfig
	Prompt     PromptConfig
	Pipeline   PipelineConfig
	Completion CompletionConfig
	Cache      CacheConfig
	S3         S3Config
	Notify     NotifyConfig
}

// InputConfig holds raw record source settings.
type InputConfig struct {
	Dir       string   `mapstructure:"dir"`
	StripKeys []string `mapstructure:"strip_keys"`
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	CSVPath      string `mapstructure:"csv_path"`
	TemplatePath string `mapstructure:"template_path"`
}

// PromptConfig holds prompt template settings.
type PromptConfig struct {
	TemplatePath string `mapstructure:"template_path"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	Concurrency   int `mapstructure:"concurrency"`
	MaxRetries    int `mapstructure:"max_retries"`
	ProgressEvery int `mapstructure:"progress_every"`
}

// CompletionConfig holds settings for the model completion provider.
type CompletionConfig struct {
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
	RPS         float64 `mapstructure:"rps"`
	Burst       int     `mapstructure:"burst"`
}

// CacheConfig holds response cache settings. An empty path disables
// the cache.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	FetchKey     string `mapstructure:"fetch_key"`
	UploadPrefix string `mapstructure:"upload_prefix"`
}

// NotifyConfig holds run notification settings.
type NotifyConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	ToAddress   string `mapstructure:"to_address"`
}

// Load reads configuration from environment variables with the
// PRODNORM_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRODNORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Input defaults
	v.SetDefault("input.dir", "data/raw")
	v.SetDefault("input.strip_keys", "reviews")

	// Output defaults
	v.SetDefault("output.csv_path", "data/normalized/products.csv")
	v.SetDefault("output.template_path", "")

	// Prompt defaults
	v.SetDefault("prompt.template_path", "")

	// Pipeline defaults
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.max_retries", 1)
	v.SetDefault("pipeline.progress_every", 50)

	// Completion defaults
	v.SetDefault("completion.provider", "openai")
	v.SetDefault("completion.api_key", "")
	v.SetDefault("completion.model", "o4-mini")
	v.SetDefault("completion.base_url", "")
	v.SetDefault("completion.timeout_secs", 60)
	v.SetDefault("completion.rps", 0)
	v.SetDefault("completion.burst", 1)

	// Cache defaults
	v.SetDefault("cache.path", "")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.fetch_key", "")
	v.SetDefault("s3.upload_prefix", "")

	// Notify defaults
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("notify.region", "us-east-1")
	v.SetDefault("notify.from_address", "")
	v.SetDefault("notify.to_address", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"input.dir":                "PRODNORM_INPUT_DIR",
		"input.strip_keys":         "PRODNORM_INPUT_STRIP_KEYS",
		"output.csv_path":          "PRODNORM_OUTPUT_CSV_PATH",
		"output.template_path":     "PRODNORM_OUTPUT_TEMPLATE_PATH",
		"prompt.template_path":     "PRODNORM_PROMPT_TEMPLATE_PATH",
		"pipeline.concurrency":     "PRODNORM_PIPELINE_CONCURRENCY",
		"pipeline.max_retries":     "PRODNORM_PIPELINE_MAX_RETRIES",
		"pipeline.progress_every":  "PRODNORM_PIPELINE_PROGRESS_EVERY",
		"completion.provider":      "PRODNORM_COMPLETION_PROVIDER",
		"completion.api_key":       "PRODNORM_COMPLETION_API_KEY",
		"completion.model":         "PRODNORM_COMPLETION_MODEL",
		"completion.base_url":      "PRODNORM_COMPLETION_BASE_URL",
		"completion.timeout_secs":  "PRODNORM_COMPLETION_TIMEOUT_SECS",
		"completion.rps":           "PRODNORM_COMPLETION_RPS",
		"completion.burst":         "PRODNORM_COMPLETION_BURST",
		"cache.path":               "PRODNORM_CACHE_PATH",
		"s3.region":                "PRODNORM_S3_REGION",
		"s3.bucket":                "PRODNORM_S3_BUCKET",
		"s3.endpoint":              "PRODNORM_S3_ENDPOINT",
		"s3.access_key":            "PRODNORM_S3_ACCESS_KEY",
		"s3.secret_key":            "PRODNORM_S3_SECRET_KEY",
		"s3.fetch_key":             "PRODNORM_S3_FETCH_KEY",
		"s3.upload_prefix":         "PRODNORM_S3_UPLOAD_PREFIX",
		"notify.provider":          "PRODNORM_NOTIFY_PROVIDER",
		"notify.region":            "PRODNORM_NOTIFY_REGION",
		"notify.from_address":      "PRODNORM_NOTIFY_FROM_ADDRESS",
		"notify.to_address":        "PRODNORM_NOTIFY_TO_ADDRESS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Parse strip keys from comma-separated string
	var stripKeys []string
	for _, k := range strings.Split(v.GetString("input.strip_keys"), ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			stripKeys = append(stripKeys, k)
		}
	}

	cfg.Input = InputConfig{
		Dir:       v.GetString("input.dir"),
		StripKeys: stripKeys,
	}
	cfg.Output = OutputConfig{
		CSVPath:      v.GetString("output.csv_path"),
		TemplatePath: v.GetString("output.template_path"),
	}
	cfg.Prompt = PromptConfig{
		TemplatePath: v.GetString("prompt.template_path"),
	}
	cfg.Pipeline = PipelineConfig{
		Concurrency:   v.GetInt("pipeline.concurrency"),
		MaxRetries:    v.GetInt("pipeline.max_retries"),
		ProgressEvery: v.GetInt("pipeline.progress_every"),
	}
	cfg.Completion = CompletionConfig{
		Provider:    v.GetString("completion.provider"),
		APIKey:      v.GetString("completion.api_key"),
		Model:       v.GetString("completion.model"),
		BaseURL:     v.GetString("completion.base_url"),
		TimeoutSecs: v.GetInt("completion.timeout_secs"),
		RPS:         v.GetFloat64("completion.rps"),
		Burst:       v.GetInt("completion.burst"),
	}
	cfg.Cache = CacheConfig{
		Path: v.GetString("cache.path"),
	}
	cfg.S3 = S3Config{
		Region:       v.GetString("s3.region"),
		Bucket:       v.GetString("s3.bucket"),
		Endpoint:     v.GetString("s3.endpoint"),
		AccessKey:    v.GetString("s3.access_key"),
		SecretKey:    v.GetString("s3.secret_key"),
		FetchKey:     v.GetString("s3.fetch_key"),
		UploadPrefix: v.GetString("s3.upload_prefix"),
	}
	cfg.Notify = NotifyConfig{
		Provider:    v.GetString("notify.provider"),
		Region:      v.GetString("notify.region"),
		FromAddress: v.GetString("notify.from_address"),
		ToAddress:   v.GetString("notify.to_address"),
	}

	return cfg, nil
}
