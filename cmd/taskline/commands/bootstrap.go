// Package commands hosts the taskline subcommands and their shared
// bootstrap plumbing.
package commands

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"taskline/internal/config"
	"taskline/internal/logger"
	"taskline/internal/queue"
)

// loadConfig resolves config and logger for a subcommand, honoring the
// --debug flag over the configured debug mode.
func loadConfig(configPath string, debugFlag bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	zapLogger, err := logger.New(cfg.BotDebugMode || debugFlag)
	if err != nil {
		return nil, nil, err
	}
	return cfg, zapLogger, nil
}

func connectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// connectQueue retries the RabbitMQ connection with exponential backoff
// to ride out broker startup delays.
func connectQueue(amqpURL string, zapLogger *zap.Logger) (queue.JobQueue, error) {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue, nil
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}
	return nil, lastErr
}
