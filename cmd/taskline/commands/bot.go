package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"taskline/internal/database"
	"taskline/internal/dialog"
	"taskline/internal/handlers"
	"taskline/internal/logger"
	"taskline/internal/queue"
	"taskline/internal/telegram"
	"taskline/internal/telemetry"
	"taskline/internal/timezone"
)

// NewBotCmd returns the subcommand that runs the Telegram bot.
func NewBotCmd() *cobra.Command {
	var configPath string
	var debugFlag bool

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(configPath, debugFlag)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	cmd.Flags().BoolVar(&debugFlag, "debug", false, "Enable debug mode for LLM API logging")
	return cmd
}

func runBot(configPath string, debugFlag bool) error {
	cfg, zapLogger, err := loadConfig(configPath, debugFlag)
	if err != nil {
		return err
	}
	defer logger.Sync(zapLogger)

	debugMode := cfg.BotDebugMode || debugFlag
	zapLogger.Info("starting_bot",
		zap.Bool("debug_mode", debugMode),
		zap.String("ops_port", cfg.OpsPort),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else if tp, err := telemetry.InitTracer(ctx, "taskline-bot", cfg.OTELEndpoint); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	redisClient, err := connectRedis(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	jobQueue, err := connectQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	taskRepo := database.NewTaskRepository(db)
	taskRepo.SetLogger(zapLogger)
	userRepo := database.NewUserRepository(db)
	userRepo.SetLogger(zapLogger)

	resolver := timezone.NewResolver(zapLogger)
	celebrator := queue.NewCelebrationEnqueuer(jobQueue)
	controller := dialog.NewController(taskRepo, userRepo, resolver, celebrator, zapLogger)
	sessions := dialog.NewSessions()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_telegram", zap.Error(err))
	}
	api.Debug = debugMode
	zapLogger.Info("connected_to_telegram", zap.String("username", api.Self.UserName))

	throttle, err := telegram.NewThrottle(redisClient, cfg.EventRate)
	if err != nil {
		zapLogger.Fatal("failed_to_create_throttle", zap.Error(err))
	}

	bot := telegram.New(api, controller, sessions, zapLogger, telegram.Options{
		UpdateTimeout:  cfg.UpdateTimeout,
		HandleDeadline: time.Duration(cfg.HandleDeadline) * time.Second,
		Throttle:       throttle,
	})

	opsServer := startOpsServer(cfg.OpsPort, cfg.OTELEnabled, db, redisClient, jobQueue, zapLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			zapLogger.Warn("failed_to_shutdown_ops_server", zap.Error(err))
		}
	}()

	if err := bot.Run(ctx); err != nil {
		return err
	}
	zapLogger.Info("bot_stopped")
	return nil
}

// startOpsServer serves /healthz on the ops port in the background.
func startOpsServer(port string, otelEnabled bool, db *database.DB, redisClient *redis.Client, jobQueue queue.JobQueue, zapLogger *zap.Logger) *http.Server {
	r := mux.NewRouter()
	if otelEnabled {
		r.Use(otelmux.Middleware("taskline-bot"))
	}

	healthChecker := handlers.NewHealthChecker(db, redisClient, jobQueue)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("ops_server_listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("ops_server_failed", zap.Error(err))
		}
	}()
	return srv
}
