package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bentansusanto/travel-api/internal/repository"
	"github.com/bentansusanto/travel-api/pkg/config"
	"github.com/bentansusanto/travel-api/pkg/database"
	"github.com/bentansusanto/travel-api/pkg/logger"
)

var Version = "dev"

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "tourctl",
		Short:         "Operator tooling for the travel API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load instead of ./.env")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(salesCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if envFile != "" {
		return config.LoadWithPath(envFile)
	}
	return config.Load()
}

// openDatabase connects with the configured settings. Commands that touch
// data need PostgreSQL; the in-memory store does not outlive the process.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.PostgresDB, error) {
	if !cfg.Database.Enabled {
		return nil, fmt.Errorf("database is disabled; set DATABASE_ENABLED=true")
	}
	db, err := database.NewPostgres(ctx, database.FromConfig(cfg.Database, false))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(ctx, db); err != nil {
				return err
			}
			logger.Get().Info("Schema applied")
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}
