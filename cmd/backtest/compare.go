package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/nadexbt/internal/adapters/notify"
	"github.com/alejandrodnm/nadexbt/internal/backtest"
)

// runCompare ejecuta la parrilla de variantes sobre el mismo histórico.
func runCompare(ctx context.Context, engine *backtest.Engine, console *notify.Console, variants []backtest.Variant) error {
	slog.Info("=== COMPARE MODE ===", "variants", len(variants))

	results, err := engine.Compare(ctx, variants)
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}

	rows := make([]notify.ComparisonRow, len(results))
	for i, r := range results {
		rows[i] = notify.ComparisonRow{Name: r.Name, Signals: r.Signals, Summary: r.Summary}
	}
	console.PrintComparison(rows)
	return nil
}
