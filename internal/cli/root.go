// Package cli implements nexarctl, the operator tool for migrations, admin grants and the
// background worker.
package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"nexar-backend/internal/config"
	"nexar-backend/internal/infrastructure/database"
	"nexar-backend/internal/pkg/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// NewRootCmd builds the nexarctl command tree.
func NewRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "nexarctl",
		Short:         "Nexar marketplace operations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !(errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file")) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load before reading config")

	root.AddCommand(
		MigrateCmd(),
		GrantAdminCmd(),
		RevokeAdminCmd(),
		WorkerCmd(),
	)
	return root
}

// loadConfig reads config and sets up logging for a subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.IsProduction())
	return cfg, nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database url is not configured (DATABASE_URL_DEV / _PROD / _TEST)")
	}
	db, err := database.Open(cfg.DatabaseURL, false)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
