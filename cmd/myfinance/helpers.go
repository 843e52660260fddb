package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/viper"

	"github.com/yobazy/MyFinance/internal/common"
	"github.com/yobazy/MyFinance/internal/config"
	"github.com/yobazy/MyFinance/internal/service"
	"github.com/yobazy/MyFinance/internal/storage"
)

// initStorage opens the configured database and brings its schema up to
// date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/myfinance/myfinance.db"
	}

	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not open database at %s", dbPath), err)
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// parseID parses a numeric command-line argument.
func parseID(arg, what string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected a number", what, arg)
	}
	return id, nil
}
