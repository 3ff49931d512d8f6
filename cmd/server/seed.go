package main

import (
	"github.com/floor-layout/backend/internal/config"
	"github.com/floor-layout/backend/internal/store"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all layouts and users with the demo dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		applyLogLevel(cfg.Advanced.LogLevel)
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}

		ctx := cmd.Context()
		s, err := openStore(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		ds, err := store.Seed(ctx, s)
		if err != nil {
			return err
		}
		logger.Info("database seeded",
			"driver", cfg.Database.Driver,
			"layouts", len(ds.Layouts),
			"components", len(ds.Components),
			"users", len(ds.Users))
		return nil
	},
}
