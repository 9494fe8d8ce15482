package backtest

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/nadexbt/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Variant sobreescribe los parámetros del RSI sobre una configuración base.
type Variant struct {
	Name       string  `yaml:"name"`
	RSIPeriod  int     `yaml:"rsi_period"`
	Oversold   float64 `yaml:"oversold"`
	Overbought float64 `yaml:"overbought"`
}

// DefaultVariants es la parrilla de comparación habitual.
func DefaultVariants() []Variant {
	return []Variant{
		{Name: "Baseline (14, 30/70)", RSIPeriod: 14, Oversold: 30, Overbought: 70},
		{Name: "Conservative (14, 25/75)", RSIPeriod: 14, Oversold: 25, Overbought: 75},
		{Name: "Aggressive (14, 35/65)", RSIPeriod: 14, Oversold: 35, Overbought: 65},
		{Name: "Fast RSI (7, 30/70)", RSIPeriod: 7, Oversold: 30, Overbought: 70},
		{Name: "Slow RSI (21, 30/70)", RSIPeriod: 21, Oversold: 30, Overbought: 70},
	}
}

// Apply devuelve la configuración base con los parámetros de la variante.
func (v Variant) Apply(base Config) Config {
	cfg := base
	cfg.RSIPeriod = v.RSIPeriod
	cfg.Oversold = v.Oversold
	cfg.Overbought = v.Overbought
	return cfg
}

// Comparison es el resultado de una variante.
type Comparison struct {
	Name    string
	Config  Config
	Signals int
	Summary domain.KPISummary
}

// Compare ejecuta todas las variantes sobre las mismas observaciones.
// Todas las configuraciones se validan antes de empezar; los resultados
// conservan el orden de variants.
func Compare(ctx context.Context, base Config, variants []Variant, obs []domain.ContractObservation) ([]Comparison, error) {
	cfgs := make([]Config, len(variants))
	for i, v := range variants {
		cfgs[i] = v.Apply(base)
		if err := cfgs[i].Validate(); err != nil {
			return nil, fmt.Errorf("variant %q: %w", v.Name, err)
		}
	}

	out := make([]Comparison, len(variants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(base.workers())
	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			res, err := Run(gctx, cfgs[i], obs)
			if err != nil {
				return fmt.Errorf("variant %q: %w", v.Name, err)
			}
			out[i] = Comparison{
				Name:    v.Name,
				Config:  cfgs[i],
				Signals: res.Signals.Active(),
				Summary: res.Summary,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("backtest.Compare: %w", err)
	}
	return out, nil
}
