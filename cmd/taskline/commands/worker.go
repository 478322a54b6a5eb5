package commands

import (
	"context"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskline/internal/logger"
	"taskline/internal/services/ai"
	"taskline/internal/telegram"
	"taskline/internal/workers"
)

// NewWorkerCmd returns the subcommand that runs the celebration worker.
func NewWorkerCmd() *cobra.Command {
	var configPath string
	var debugFlag bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the celebration worker",
		Long:  "Consumes completion jobs from the queue, generates celebration texts and delivers them to chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(configPath, debugFlag)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	cmd.Flags().BoolVar(&debugFlag, "debug", false, "Enable debug mode for LLM API logging")
	return cmd
}

func runWorker(configPath string, debugFlag bool) error {
	cfg, zapLogger, err := loadConfig(configPath, debugFlag)
	if err != nil {
		return err
	}
	defer logger.Sync(zapLogger)

	debugMode := cfg.BotDebugMode || debugFlag
	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_model", cfg.AIModel),
		zap.Int("prefetch", cfg.Prefetch),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobQueue, err := connectQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_telegram", zap.Error(err))
	}
	zapLogger.Info("connected_to_telegram", zap.String("username", api.Self.UserName))

	provider := ai.NewOpenAIProviderWithLogger(
		cfg.OpenAIKey,
		cfg.AIBaseURL,
		cfg.AIModel,
		zapLogger,
		debugMode,
	)

	celebrator := workers.NewCelebrator(provider, telegram.NewMessageNotifier(api), zapLogger)
	if err := celebrator.Run(ctx, jobQueue, cfg.Prefetch); err != nil {
		return err
	}

	zapLogger.Info("worker_stopped")
	return nil
}
