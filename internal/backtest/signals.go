package backtest

// signals.go — indicador y señal por ticker.
//
// Cada ticker es una partición independiente: su serie diaria se ordena por
// fecha y el RSI solo depende de ese orden. Los tickers se procesan en
// paralelo con un errgroup acotado; el resultado no depende del reparto.

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alejandrodnm/nadexbt/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Signals indexa la señal de cada (ticker, día). Como mucho una por par.
type Signals map[domain.TickerDay]domain.Signal

// Active cuenta las señales con dirección distinta de none.
func (s Signals) Active() int {
	n := 0
	for _, sig := range s {
		if sig.Direction != domain.DirectionNone {
			n++
		}
	}
	return n
}

// dailyPoint es el valor del subyacente de un ticker en un día.
type dailyPoint struct {
	date  time.Time
	value float64
}

// ComputeSignals calcula una señal por ticker-día a partir del expected value
// diario. Varias filas del mismo ticker-día (un strike cada una) comparten el
// subyacente: se usa el primer valor válido.
func ComputeSignals(ctx context.Context, obs []domain.ContractObservation, cfg Config) (Signals, error) {
	series := dailySeries(obs)

	tickers := make([]string, 0, len(series))
	for t := range series {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	results := make([][]domain.Signal, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = tickerSignals(ticker, series[ticker], cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("backtest.ComputeSignals: %w", err)
	}

	out := make(Signals)
	for _, sigs := range results {
		for _, s := range sigs {
			out[s.Key()] = s
		}
	}
	return out, nil
}

// tickerSignals aplica RSI, umbrales y filtro de tendencia a la serie de un ticker.
func tickerSignals(ticker string, points []dailyPoint, cfg Config) []domain.Signal {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.value
	}

	rsi := domain.ComputeRSI(values, cfg.RSIPeriod, cfg.RSIMethod)
	var trend []domain.Metric
	if cfg.TrendPeriod > 0 {
		trend = domain.SMA(values, cfg.TrendPeriod)
	}

	out := make([]domain.Signal, len(points))
	for i, p := range points {
		dir := domain.GenerateSignal(rsi[i], cfg.Oversold, cfg.Overbought)
		if trend != nil {
			dir = domain.ApplyTrend(dir, p.value, trend[i])
		}
		out[i] = domain.Signal{
			Ticker:         ticker,
			Date:           p.date,
			Direction:      dir,
			IndicatorValue: rsi[i],
		}
	}
	return out
}

// dailySeries construye la serie cronológica por ticker con un punto por día.
func dailySeries(obs []domain.ContractObservation) map[string][]dailyPoint {
	seen := make(map[domain.TickerDay]struct{})
	series := make(map[string][]dailyPoint)
	for _, o := range obs {
		if !o.HasValidPrices() {
			continue
		}
		k := o.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		series[o.Ticker] = append(series[o.Ticker], dailyPoint{date: k.Date, value: o.ExpectedValue})
	}
	for _, pts := range series {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].date.Before(pts[j].date) })
	}
	return series
}
