package main

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/nadexbt/internal/adapters/notify"
	"github.com/alejandrodnm/nadexbt/internal/adapters/storage"
)

// showHistory imprime las últimas ejecuciones guardadas o el ledger de una.
func showHistory(ctx context.Context, dsn string, console *notify.Console, limit int, runID string) error {
	store, err := storage.NewSQLiteStorage(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	if runID != "" {
		trades, err := store.GetRunTrades(ctx, runID)
		if err != nil {
			return fmt.Errorf("run %s: %w", runID, err)
		}
		fmt.Printf("\n=== RUN %s — %d trades ===\n", runID, len(trades))
		console.PrintTrades(trades)
		return nil
	}

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	console.PrintHistory(runs)
	return nil
}
