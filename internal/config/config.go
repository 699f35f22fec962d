package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	PostgresURL string `mapstructure:"POSTGRES_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioPublicURL string `mapstructure:"MINIO_PUBLIC_URL"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	OpenAIKey     string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel   string `mapstructure:"OPENAI_MODEL"`

	FetchTimeout     int `mapstructure:"FETCH_TIMEOUT"`      // seconds
	IngestDelayMs    int `mapstructure:"INGEST_DELAY_MS"`    // between image downloads
	ModelIntervalMs  int `mapstructure:"MODEL_INTERVAL_MS"`  // min gap between model calls
	ModelRetries     int `mapstructure:"MODEL_RETRIES"`      // attempts per model call
	ModelRetryWaitMs int `mapstructure:"MODEL_RETRY_WAIT_MS"`
	DedupeHours      int `mapstructure:"DEDUPE_HOURS"` // re-import suppression window
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("MINIO_BUCKET", "listing-photos")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("FETCH_TIMEOUT", 30)
	viper.SetDefault("INGEST_DELAY_MS", 500)
	viper.SetDefault("MODEL_INTERVAL_MS", 1000)
	viper.SetDefault("MODEL_RETRIES", 3)
	viper.SetDefault("MODEL_RETRY_WAIT_MS", 2000)
	viper.SetDefault("DEDUPE_HOURS", 48)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
