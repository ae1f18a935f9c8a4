package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string `yaml:"port"`
	DatabasePath   string `yaml:"database_path"`
	MigrationsPath string `yaml:"migrations_path"`
	LogLevel       string `yaml:"log_level"`

	// S3
	S3Endpoint        string `yaml:"s3_endpoint"`
	S3AccessKeyID     string `yaml:"s3_access_key_id"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key"`
	S3BucketName      string `yaml:"s3_bucket_name"`
	S3UseSSL          bool   `yaml:"s3_use_ssl"`

	// OpenRouter
	OpenRouterAPIKey  string `yaml:"openrouter_api_key"`
	OpenRouterModel   string `yaml:"openrouter_model"`
	OpenRouterBaseURL string `yaml:"openrouter_base_url"`

	// Upload limits
	MaxFileSize int64 `yaml:"max_file_size"`

	// Traffic control
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	// Table views
	DefaultRowsPerPage int `yaml:"default_rows_per_page"`
	MaxRowsPerPage     int `yaml:"max_rows_per_page"`
}

func defaults() *Config {
	return &Config{
		Port:               "8080",
		DatabasePath:       "./data/documents.db",
		MigrationsPath:     "internal/db/migrations",
		LogLevel:           "info",
		S3Endpoint:         "localhost:9000",
		S3AccessKeyID:      "minioadmin",
		S3SecretAccessKey:  "minioadmin",
		S3BucketName:       "documents",
		OpenRouterModel:    "openai/gpt-4o-mini",
		OpenRouterBaseURL:  "https://openrouter.ai/api/v1",
		MaxFileSize:        5 * 1024 * 1024,
		RateLimitRPS:       20,
		RateLimitBurst:     40,
		DefaultRowsPerPage: 10,
		MaxRowsPerPage:     500,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.MigrationsPath = getEnv("MIGRATIONS_PATH", cfg.MigrationsPath)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKeyID = getEnv("S3_ACCESS_KEY_ID", cfg.S3AccessKeyID)
	cfg.S3SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", cfg.S3SecretAccessKey)
	cfg.S3BucketName = getEnv("S3_BUCKET_NAME", cfg.S3BucketName)
	cfg.S3UseSSL = getEnvBool("S3_USE_SSL", cfg.S3UseSSL)
	cfg.OpenRouterAPIKey = getEnv("OPENROUTER_API_KEY", cfg.OpenRouterAPIKey)
	cfg.OpenRouterModel = getEnv("OPENROUTER_MODEL", cfg.OpenRouterModel)
	cfg.OpenRouterBaseURL = getEnv("OPENROUTER_BASE_URL", cfg.OpenRouterBaseURL)
	cfg.MaxFileSize = getEnvInt64("MAX_FILE_SIZE", cfg.MaxFileSize)
	cfg.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.DefaultRowsPerPage = getEnvInt("DEFAULT_ROWS_PER_PAGE", cfg.DefaultRowsPerPage)
	cfg.MaxRowsPerPage = getEnvInt("MAX_ROWS_PER_PAGE", cfg.MaxRowsPerPage)

	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", cfg.MaxFileSize)
	}
	if cfg.DefaultRowsPerPage <= 0 || cfg.MaxRowsPerPage < cfg.DefaultRowsPerPage {
		return nil, fmt.Errorf("invalid rows per page limits: default=%d max=%d", cfg.DefaultRowsPerPage, cfg.MaxRowsPerPage)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvInt64(key string, defaultValue int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}
