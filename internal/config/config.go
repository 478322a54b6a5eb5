package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
	"taskline/internal/validation"
)

// Config holds application configuration
type Config struct {
	BotToken       string `yaml:"bot_token" validate:"required"`
	DatabaseURL    string `yaml:"database_url" validate:"required"`
	RedisURL       string `yaml:"redis_url" validate:"required,url"`
	RabbitMQURL    string `yaml:"rabbitmq_url" validate:"required"`
	Prefetch       int    `yaml:"prefetch" validate:"min=1"`
	OpsPort        string `yaml:"ops_port" validate:"required"`
	OpenAIKey      string `yaml:"openai_api_key"`
	AIModel        string `yaml:"ai_model"`
	AIBaseURL      string `yaml:"ai_base_url" validate:"omitempty,url"`
	EventRate      string `yaml:"event_rate" validate:"required"`
	BotDebugMode   bool   `yaml:"bot_debug_mode"`
	OTELEnabled    bool   `yaml:"otel_enabled"`
	OTELEndpoint   string `yaml:"otel_endpoint"`
	UpdateTimeout  int    `yaml:"update_timeout" validate:"min=1"`
	HandleDeadline int    `yaml:"handle_deadline_seconds" validate:"min=1"`
}

// Load loads configuration from an optional YAML file with environment
// variables taking precedence. path may be empty.
func Load(path string) (*Config, error) {
	cfg := &Config{
		RedisURL:       "redis://localhost:6379/0",
		Prefetch:       1,
		OpsPort:        "8080",
		EventRate:      "5-S",
		UpdateTimeout:  30,
		HandleDeadline: 15,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validation.Validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.BotToken = getEnv("BOT_TOKEN", cfg.BotToken)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.Prefetch = getEnvInt("RABBITMQ_PREFETCH", cfg.Prefetch)
	cfg.OpsPort = getEnv("OPS_PORT", cfg.OpsPort)
	cfg.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIKey)
	cfg.AIModel = getEnv("AI_MODEL", cfg.AIModel)
	cfg.AIBaseURL = getEnv("AI_BASE_URL", cfg.AIBaseURL)
	cfg.EventRate = getEnv("EVENT_RATE", cfg.EventRate)
	cfg.BotDebugMode = getEnvBool("BOT_DEBUG_MODE", cfg.BotDebugMode)
	cfg.OTELEnabled = getEnvBool("OTEL_ENABLED", cfg.OTELEnabled)
	cfg.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTELEndpoint)
	cfg.UpdateTimeout = getEnvInt("UPDATE_TIMEOUT", cfg.UpdateTimeout)
	cfg.HandleDeadline = getEnvInt("HANDLE_DEADLINE_SECONDS", cfg.HandleDeadline)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
