package main

import (
	"context"
	"fmt"

	"alcyxob/intern-platform/internal/app"
	"alcyxob/intern-platform/internal/config"
	"alcyxob/intern-platform/internal/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "studyplanctl",
	Short:         "Study plan engine maintenance",
	Long:          "Index bootstrap, slug backfill, lesson regeneration and development tokens for the study plan engine.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", ".", "Directory holding config.yaml (env vars override it)")

	rootCmd.AddCommand(ensureIndexesCmd)
	rootCmd.AddCommand(migrateSlugsCmd)
	rootCmd.AddCommand(regenerateLessonCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(issueTokenCmd)
}

// env is what every store-backed command needs.
type env struct {
	cfg   config.Config
	log   *logger.Logger
	store *app.Store
}

func (e *env) Close() {
	_ = e.store.Close()
	e.log.Sync()
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	store, err := app.OpenStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &env{cfg: cfg, log: log, store: store}, nil
}
