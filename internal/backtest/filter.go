package backtest

import (
	"github.com/alejandrodnm/nadexbt/internal/domain"
)

// FilterConfig contiene los filtros opcionales previos a la simulación.
// Ambos vienen de configuración externa; el núcleo no decide qué tickers excluir.
type FilterConfig struct {
	// MaxStrikeDistance mantiene solo strikes con |strike - expected| / expected <= X
	// (fracción: 0.02 = ±2%). nil = sin filtro, se conserva toda la distribución.
	MaxStrikeDistance *float64 `validate:"omitempty,gt=0"`
	// ExcludedTickers descarta tickers crónicamente no rentables.
	ExcludedTickers []string
}

// FilterStats cuenta los descartes de cada filtro.
type FilterStats struct {
	ExcludedTicker int
	StrikeDistance int
}

// Filter aplica los filtros configurados sobre las observaciones.
type Filter struct {
	maxDistance *float64
	excluded    map[string]struct{}
}

// NewFilter crea un Filter con la configuración dada.
func NewFilter(cfg FilterConfig) *Filter {
	f := &Filter{maxDistance: cfg.MaxStrikeDistance}
	if len(cfg.ExcludedTickers) > 0 {
		f.excluded = make(map[string]struct{}, len(cfg.ExcludedTickers))
		for _, t := range cfg.ExcludedTickers {
			f.excluded[t] = struct{}{}
		}
	}
	return f
}

// FilterObservations es el atajo funcional de NewFilter(cfg).Apply(obs).
func FilterObservations(obs []domain.ContractObservation, cfg FilterConfig) []domain.ContractObservation {
	out, _ := NewFilter(cfg).Apply(obs)
	return out
}

// Apply devuelve las observaciones que pasan todos los filtros, en el mismo orden.
// Cada filtro es un predicado sobre una sola observación, así que el resultado
// no depende del orden en que se compongan.
func (f *Filter) Apply(obs []domain.ContractObservation) ([]domain.ContractObservation, FilterStats) {
	var stats FilterStats
	result := make([]domain.ContractObservation, 0, len(obs))
	for _, o := range obs {
		if !f.tickerAllowed(o) {
			stats.ExcludedTicker++
			continue
		}
		if !f.withinDistance(o) {
			stats.StrikeDistance++
			continue
		}
		result = append(result, o)
	}
	return result, stats
}

// ByTicker aplica solo la exclusión de tickers.
func (f *Filter) ByTicker(obs []domain.ContractObservation) []domain.ContractObservation {
	return keep(obs, f.tickerAllowed)
}

// ByStrikeDistance aplica solo la ventana de distancia al strike.
func (f *Filter) ByStrikeDistance(obs []domain.ContractObservation) []domain.ContractObservation {
	return keep(obs, f.withinDistance)
}

func (f *Filter) tickerAllowed(o domain.ContractObservation) bool {
	_, excluded := f.excluded[o.Ticker]
	return !excluded
}

// withinDistance deja pasar las observaciones con precios inválidos: no se
// puede medir su distancia y el simulador las contabiliza como calidad de datos.
func (f *Filter) withinDistance(o domain.ContractObservation) bool {
	if f.maxDistance == nil || !o.HasValidPrices() {
		return true
	}
	return o.StrikeDistance() <= *f.maxDistance
}

func keep(obs []domain.ContractObservation, pred func(domain.ContractObservation) bool) []domain.ContractObservation {
	out := make([]domain.ContractObservation, 0, len(obs))
	for _, o := range obs {
		if pred(o) {
			out = append(out, o)
		}
	}
	return out
}

// SelectATM se queda, por ticker-día, con el strike válido más cercano al
// expected value (empate: el strike menor). Las observaciones con precios
// inválidos se conservan para que el simulador las cuente.
func SelectATM(obs []domain.ContractObservation) ([]domain.ContractObservation, int) {
	best := make(map[domain.TickerDay]int)
	for i, o := range obs {
		if !o.HasValidPrices() {
			continue
		}
		k := o.Key()
		j, ok := best[k]
		if !ok || closerToMoney(o, obs[j]) {
			best[k] = i
		}
	}

	out := make([]domain.ContractObservation, 0, len(best))
	dropped := 0
	for i, o := range obs {
		if !o.HasValidPrices() {
			out = append(out, o)
			continue
		}
		if best[o.Key()] == i {
			out = append(out, o)
			continue
		}
		dropped++
	}
	return out, dropped
}

func closerToMoney(a, b domain.ContractObservation) bool {
	da, db := abs64(a.StrikePrice-a.ExpectedValue), abs64(b.StrikePrice-b.ExpectedValue)
	if da != db {
		return da < db
	}
	return a.StrikePrice < b.StrikePrice
}

func abs64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
