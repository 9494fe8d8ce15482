package ports

import (
	"context"

	"github.com/alejandrodnm/nadexbt/internal/domain"
)

// Reporter presenta o exporta el resultado de un backtest.
type Reporter interface {
	Report(ctx context.Context, run domain.BacktestRun) error
}
