package domain

import (
	"math"
	"time"
)

// ContractObservation es una fila del histórico de liquidaciones: un strike
// concreto de un ticker en un día de expiración.
type ContractObservation struct {
	Ticker        string
	Date          time.Time
	StrikePrice   float64
	ExpectedValue float64 // valor de liquidación del subyacente ("Exp Value")
	InTheMoney    bool    // etiqueta histórica de liquidación
}

// TickerDay identifica una serie diaria por ticker. Es la clave de las señales.
type TickerDay struct {
	Ticker string
	Date   time.Time
}

// Key devuelve la clave (ticker, día) de la observación.
func (o ContractObservation) Key() TickerDay {
	return NewTickerDay(o.Ticker, o.Date)
}

// NewTickerDay normaliza la fecha a medianoche UTC para que dos observaciones
// del mismo día compartan clave aunque traigan hora.
func NewTickerDay(ticker string, date time.Time) TickerDay {
	y, m, d := date.Date()
	return TickerDay{Ticker: ticker, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// HasValidPrices devuelve true si strike y expected value son numéricos y positivos.
// Las observaciones que no lo cumplen son exclusiones de calidad de datos.
func (o ContractObservation) HasValidPrices() bool {
	return isPositiveFinite(o.StrikePrice) && isPositiveFinite(o.ExpectedValue)
}

// Moneyness devuelve (expected - strike) / strike. Positivo = ITM para el lado comprador.
func (o ContractObservation) Moneyness() float64 {
	return Moneyness(o.ExpectedValue, o.StrikePrice)
}

// StrikeDistance devuelve |strike - expected| / expected.
func (o ContractObservation) StrikeDistance() float64 {
	return math.Abs(o.StrikePrice-o.ExpectedValue) / o.ExpectedValue
}

// Moneyness calcula la distancia relativa del subyacente al strike.
func Moneyness(expectedValue, strikePrice float64) float64 {
	return (expectedValue - strikePrice) / strikePrice
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
