package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/records-ingest/internal/common"
	repo "github.com/joseph-ayodele/records-ingest/internal/repository"
)

func main() {
	var (
		configPath string
		dsn        string
		migrate    bool
	)
	cmd := &cobra.Command{
		Use:          "dbhealth",
		Short:        "Ping the records database and print what it holds",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := common.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if dsn != "" {
				cfg.Database.DSN = dsn
			}
			logger := cfg.Log.NewLogger()
			ctx := cmd.Context()

			store, err := repo.Open(ctx, repo.ConfigFrom(cfg.Database), logger)
			if err != nil {
				return fmt.Errorf("opening DB: %w", err)
			}
			defer store.Close()

			if err := store.HealthCheck(ctx, time.Second); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			cmd.Printf("DB health: OK (%s)\n", store.Dialect())

			if migrate {
				if err := store.Migrate(ctx); err != nil {
					return err
				}
				cmd.Println("schema: up to date")
			}

			files, err := repo.NewFileRepository(store, logger).CountByCategory(ctx)
			if err != nil {
				return fmt.Errorf("counting files: %w", err)
			}
			cmd.Printf("admitted files: %d categories\n", len(files))
			for cat, n := range files {
				cmd.Printf("- %s: %d\n", cat, n)
			}

			counts, err := repo.NewCategoryRepository(store, logger).ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("listing categories: %w", err)
			}
			cmd.Printf("stored records: %d category/department pairs\n", len(counts))
			for _, c := range counts {
				cmd.Printf("- [%s] %s: %d\n", c.Department, c.Category, c.Records)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("RECORDS_CONFIG"), "path to a YAML config file")
	cmd.Flags().StringVar(&dsn, "db", "", "database DSN, overrides the config")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before reporting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
