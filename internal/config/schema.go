package config

import "time"

// Config holds pastq configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Model      ModelCfg      `mapstructure:"model" yaml:"model"`
	Extraction ExtractionCfg `mapstructure:"extraction" yaml:"extraction"`
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
}

// ModelCfg configures the generative model endpoint.
type ModelCfg struct {
	// Name is the model identifier sent with every request.
	Name string `mapstructure:"name" yaml:"name"`
	// BaseURL overrides the OpenAI-compatible endpoint (empty = api.openai.com).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// APIKey supports ${ENV_VAR} syntax.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	// RateLimit is requests per minute against the model endpoint.
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit"`
	// MaxRetries bounds transport-level retry attempts per call.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	// RequestTimeout bounds a single model call.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	Temperature float32 `mapstructure:"temperature" yaml:"temperature"`
	TopP        float32 `mapstructure:"top_p" yaml:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// ExtractionCfg holds the extraction pipeline tunables.
// SimilarityThreshold and ConfidenceMargin were magic constants in earlier
// versions; they are configuration now.
type ExtractionCfg struct {
	// SimilarityThreshold is the token-overlap score above which two stems
	// are treated as the same question.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	// ConfidenceMargin is how much a candidate's confidence must exceed an
	// existing unverified record's before it replaces it.
	ConfidenceMargin float64 `mapstructure:"confidence_margin" yaml:"confidence_margin"`
	// PageDelay is the pause inserted between pages to avoid hammering the
	// model endpoint.
	PageDelay time.Duration `mapstructure:"page_delay" yaml:"page_delay"`
	// YearMin/YearMax bound the source-year field accepted from the model.
	YearMin int `mapstructure:"year_min" yaml:"year_min"`
	YearMax int `mapstructure:"year_max" yaml:"year_max"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelCfg{
			Name:           "gpt-4o-mini",
			APIKey:         "${OPENAI_API_KEY}",
			RateLimit:      60,
			MaxRetries:     3,
			RequestTimeout: 120 * time.Second,
			Temperature:    0.1,
			TopP:           0.9,
			MaxTokens:      4096,
		},
		Extraction: ExtractionCfg{
			SimilarityThreshold: 0.8,
			ConfidenceMargin:    0.1,
			PageDelay:           2 * time.Second,
			YearMin:             1980,
			YearMax:             time.Now().Year() + 1,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
	}
}
