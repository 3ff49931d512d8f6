package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/floor-layout/backend/internal/config"
	"github.com/floor-layout/backend/internal/store"
)

// openStore opens the layout store selected by cfg.Database.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (store.Store, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "memory" {
		return store.NewMemoryStore(), nil
	}
	s, err := store.OpenSQLStore(ctx, driver, cfg.DSN, store.OpenOptions{
		DuckDBThreads:     cfg.DuckDBThreads,
		DuckDBMemoryLimit: cfg.DuckDBMemLimit,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}
	return s, nil
}

// isEmpty reports whether s holds neither layouts nor users.
func isEmpty(ctx context.Context, s store.Store) (bool, error) {
	layouts, err := s.ListLayouts(ctx)
	if err != nil {
		return false, err
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	return len(layouts) == 0 && len(users) == 0, nil
}
