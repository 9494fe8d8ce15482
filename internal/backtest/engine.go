package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/nadexbt/internal/domain"
	"github.com/alejandrodnm/nadexbt/internal/ports"
	"github.com/google/uuid"
)

// Engine conecta el núcleo con sus colaboradores de I/O: fuente de datos,
// almacenamiento de ejecuciones y reporters. El núcleo no guarda estado global.
type Engine struct {
	cfg       Config
	source    ports.ObservationSource
	store     ports.RunStorage // opcional
	reporters []ports.Reporter
	now       func() time.Time
}

// New crea un Engine con todas las dependencias inyectadas. store puede ser nil.
func New(cfg Config, source ports.ObservationSource, store ports.RunStorage, reporters ...ports.Reporter) *Engine {
	return &Engine{
		cfg:       cfg,
		source:    source,
		store:     store,
		reporters: reporters,
		now:       time.Now,
	}
}

// Run valida la configuración, carga el histórico, ejecuta el backtest, lo
// persiste y lo reporta. Los fallos de un reporter se registran pero no
// invalidan la ejecución.
func (e *Engine) Run(ctx context.Context) (domain.BacktestRun, error) {
	if err := e.cfg.Validate(); err != nil {
		return domain.BacktestRun{}, err
	}

	obs, err := e.load(ctx)
	if err != nil {
		return domain.BacktestRun{}, err
	}

	start := e.now()
	res, err := Run(ctx, e.cfg, obs)
	if err != nil {
		return domain.BacktestRun{}, fmt.Errorf("backtest.Engine.Run: %w", err)
	}

	run := domain.BacktestRun{
		ID:           uuid.New().String(),
		CreatedAt:    start.UTC(),
		Params:       e.cfg.Params(),
		Observations: res.Observations,
		Signals:      res.Signals.Active(),
		Excluded:     res.Excluded,
		Trades:       res.Trades,
		Summary:      res.Summary,
	}

	slog.Info("backtest complete",
		"run_id", run.ID,
		"trades", run.Summary.TradeCount,
		"win_rate", fmt.Sprintf("%.2f%%", run.Summary.WinRate*100),
		"net_pnl", fmt.Sprintf("%.2f", run.Summary.NetPnLTotal),
		"data_quality_excluded", run.Excluded.DataQuality,
		"elapsed", e.now().Sub(start).Round(time.Millisecond),
	)

	if e.store != nil {
		if err := e.store.SaveRun(ctx, run); err != nil {
			return run, fmt.Errorf("backtest.Engine.Run: save run: %w", err)
		}
	}

	for _, r := range e.reporters {
		if err := r.Report(ctx, run); err != nil {
			slog.Warn("reporter error", "run_id", run.ID, "err", err)
		}
	}
	return run, nil
}

// Compare carga el histórico una vez y ejecuta la parrilla de variantes.
func (e *Engine) Compare(ctx context.Context, variants []Variant) ([]Comparison, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	obs, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	return Compare(ctx, e.cfg, variants, obs)
}

func (e *Engine) load(ctx context.Context) ([]domain.ContractObservation, error) {
	slog.Info("loading observations")
	obs, err := e.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("backtest.Engine: load observations: %w", err)
	}
	slog.Info("observations loaded", "rows", len(obs))
	return obs, nil
}
