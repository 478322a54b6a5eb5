package commands

import (
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"taskline/internal/database"
	"taskline/internal/logger"
)

// NewInitDBCmd returns the subcommand that applies the database schema.
func NewInitDBCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zapLogger, err := loadConfig(configPath, false)
			if err != nil {
				return err
			}
			defer logger.Sync(zapLogger)

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			zapLogger.Info("schema_applied", zap.String("database", "postgres"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	return cmd
}
