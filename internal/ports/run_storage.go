package ports

import (
	"context"

	"github.com/alejandrodnm/nadexbt/internal/domain"
)

// RunStorage persiste el resultado de cada backtest.
type RunStorage interface {
	// SaveRun guarda el resumen y el ledger de trades de una ejecución.
	SaveRun(ctx context.Context, run domain.BacktestRun) error

	// ListRuns devuelve las últimas ejecuciones, más recientes primero.
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// GetRunTrades devuelve el ledger de una ejecución guardada, en orden de simulación.
	GetRunTrades(ctx context.Context, runID string) ([]domain.SimulatedTrade, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
