package domain

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultMaxPayout es el pago de un binario Nadex que liquida ITM.
	DefaultMaxPayout = 10.0
	// DefaultVolatility es la volatilidad diaria asumida por el modelo probabilístico.
	DefaultVolatility = 0.01

	minProbability = 0.05
	maxProbability = 0.95
)

// PricingModel estima el coste de entrada del lado comprador de un contrato.
// Las implementaciones son funciones puras sin estado oculto.
type PricingModel interface {
	Name() string
	// Price devuelve el coste de comprar el binario, ya acotado a los límites del modelo.
	Price(expectedValue, strikePrice float64) float64
	// Limits devuelve el rango [min, max] de precios y el pago máximo.
	Limits() PriceLimits
}

// PriceLimits acota los precios de entrada. MaxPayout es a la vez el pago del
// contrato ganador y el precio máximo admisible.
type PriceLimits struct {
	MinPrice  float64
	MaxPayout float64
}

// Clamp acota v a [MinPrice, MaxPayout].
func (l PriceLimits) Clamp(v float64) float64 {
	return math.Max(l.MinPrice, math.Min(l.MaxPayout, v))
}

// EntryCost devuelve el coste de abrir el contrato por el lado dado.
// Vender el binario inmoviliza MaxPayout - precio de compra.
func EntryCost(m PricingModel, side Side, expectedValue, strikePrice float64) float64 {
	lim := m.Limits()
	price := m.Price(expectedValue, strikePrice)
	if side == SideSell {
		return lim.Clamp(lim.MaxPayout - price)
	}
	return price
}

// PriceBand es un tramo del modelo escalonado. Cubre la moneyness en
// (Above, Above del tramo anterior]; el último tramo recoge todo lo demás.
type PriceBand struct {
	Label string  `yaml:"label" json:"label"`
	Above float64 `yaml:"above" json:"above"`
	Price float64 `yaml:"price" json:"price"`
}

// ThreeTierBands es el modelo original: ±1% alrededor del strike.
func ThreeTierBands() []PriceBand {
	return []PriceBand{
		{Label: "ITM", Above: 0.01, Price: 7.50},
		{Label: "ATM", Above: -0.01, Price: 5.00},
		{Label: "OTM", Price: 2.50},
	}
}

// SevenTierBands afina el modelo de 3 tramos con bandas a 0.5%, 1% y 2%.
func SevenTierBands() []PriceBand {
	return []PriceBand{
		{Label: "ITM>2%", Above: 0.02, Price: 8.50},
		{Label: "ITM 1-2%", Above: 0.01, Price: 7.50},
		{Label: "ITM 0.5-1%", Above: 0.005, Price: 6.25},
		{Label: "ATM", Above: -0.005, Price: 5.00},
		{Label: "OTM 0.5-1%", Above: -0.01, Price: 3.75},
		{Label: "OTM 1-2%", Above: -0.02, Price: 2.50},
		{Label: "OTM>2%", Price: 1.50},
	}
}

// TieredModel asigna un precio fijo por tramo de moneyness.
// Los tramos se recorren de más ITM a más OTM y gana el primero que encaja.
type TieredModel struct {
	Bands  []PriceBand
	Bounds PriceLimits
}

// NewTieredModel crea un modelo escalonado. bands debe venir ordenado por Above descendente.
func NewTieredModel(bands []PriceBand, limits PriceLimits) TieredModel {
	return TieredModel{Bands: bands, Bounds: limits}
}

func (m TieredModel) Name() string        { return "tiered" }
func (m TieredModel) Limits() PriceLimits { return m.Bounds }

// Band devuelve el tramo que corresponde a la moneyness dada.
func (m TieredModel) Band(expectedValue, strikePrice float64) PriceBand {
	mny := Moneyness(expectedValue, strikePrice)
	last := len(m.Bands) - 1
	for i, b := range m.Bands {
		if i == last || mny > b.Above {
			return b
		}
	}
	return PriceBand{}
}

func (m TieredModel) Price(expectedValue, strikePrice float64) float64 {
	return m.Bounds.Clamp(m.Band(expectedValue, strikePrice).Price)
}

// ProbabilityModel pone precio a partir de la probabilidad de terminar ITM:
// z = (expected - strike) / (strike × vol), p = Φ(z) acotada a [0.05, 0.95].
type ProbabilityModel struct {
	Volatility float64
	Bounds     PriceLimits
}

// NewProbabilityModel crea el modelo probabilístico. vol <= 0 usa DefaultVolatility.
func NewProbabilityModel(vol float64, limits PriceLimits) ProbabilityModel {
	if vol <= 0 {
		vol = DefaultVolatility
	}
	return ProbabilityModel{Volatility: vol, Bounds: limits}
}

func (m ProbabilityModel) Name() string        { return "probability" }
func (m ProbabilityModel) Limits() PriceLimits { return m.Bounds }

// Probability devuelve la probabilidad estimada de liquidar ITM.
func (m ProbabilityModel) Probability(expectedValue, strikePrice float64) float64 {
	z := (expectedValue - strikePrice) / (strikePrice * m.Volatility)
	p := distuv.UnitNormal.CDF(z)
	return math.Max(minProbability, math.Min(maxProbability, p))
}

func (m ProbabilityModel) Price(expectedValue, strikePrice float64) float64 {
	return m.Bounds.Clamp(m.Bounds.MaxPayout * m.Probability(expectedValue, strikePrice))
}
