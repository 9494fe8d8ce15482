package backtest

import (
	"context"
	"fmt"
	"sort"

	"github.com/alejandrodnm/nadexbt/internal/domain"
)

// Result es la salida del núcleo: señales, ledger y KPIs de una ejecución.
type Result struct {
	Observations int
	Signals      Signals
	Trades       []domain.SimulatedTrade
	Excluded     domain.Exclusions
	Summary      domain.KPISummary
}

// Run ejecuta el pipeline completo sobre observaciones ya cargadas:
// RSI → señal → filtros → fan-out/simulación → KPIs.
// La configuración se valida antes de cualquier cálculo.
func Run(ctx context.Context, cfg Config, obs []domain.ContractObservation) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	pricing, err := NewPricingModel(cfg.Pricing)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}

	sorted := sortObservations(obs)

	signals, err := ComputeSignals(ctx, sorted, cfg)
	if err != nil {
		return Result{}, err
	}

	filtered, fstats := NewFilter(cfg.Filter).Apply(sorted)
	notATM := 0
	if cfg.FanOut == FanOutATM {
		filtered, notATM = SelectATM(filtered)
	}

	sim := Simulate(filtered, signals, pricing, cfg.FeePerContract, cfg.ShortMode)

	return Result{
		Observations: len(obs),
		Signals:      signals,
		Trades:       sim.Trades,
		Excluded: domain.Exclusions{
			DataQuality:    sim.DataQuality,
			ExcludedTicker: fstats.ExcludedTicker,
			StrikeDistance: fstats.StrikeDistance,
			NotATM:         notATM,
			NoSignal:       sim.NoSignal,
		},
		Summary: domain.Aggregate(sim.Trades, cfg.PeriodsPerYear),
	}, nil
}

// sortObservations devuelve una copia ordenada por ticker, fecha y strike.
// La entrada no se modifica.
func sortObservations(obs []domain.ContractObservation) []domain.ContractObservation {
	out := make([]domain.ContractObservation, len(obs))
	copy(out, obs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.StrikePrice < b.StrikePrice
	})
	return out
}
