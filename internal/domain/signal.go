package domain

import "time"

// Direction es la decisión diaria de la estrategia.
type Direction int

const (
	DirectionNone  Direction = iota
	DirectionLong            // RSI sobrevendido
	DirectionShort           // RSI sobrecomprado; cómo se opera lo decide ShortMode
)

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "long"
	case DirectionShort:
		return "short"
	default:
		return "none"
	}
}

// ParseDirection es la inversa de String. Cualquier otro valor es DirectionNone.
func ParseDirection(s string) Direction {
	switch s {
	case "long":
		return DirectionLong
	case "short":
		return DirectionShort
	default:
		return DirectionNone
	}
}

// Signal es la señal calculada para un (ticker, día). Hay como mucho una por par.
type Signal struct {
	Ticker         string
	Date           time.Time
	Direction      Direction
	IndicatorValue Metric
}

// Key devuelve la clave (ticker, día) de la señal.
func (s Signal) Key() TickerDay {
	return NewTickerDay(s.Ticker, s.Date)
}

// GenerateSignal traduce el valor del oscilador en una dirección.
// long si ind < oversold, short si ind > overbought, none en otro caso
// (incluido el indicador indefinido).
func GenerateSignal(ind Metric, oversold, overbought float64) Direction {
	if !ind.Valid {
		return DirectionNone
	}
	switch {
	case ind.Value < oversold:
		return DirectionLong
	case ind.Value > overbought:
		return DirectionShort
	default:
		return DirectionNone
	}
}

// ApplyTrend filtra la dirección con la media de tendencia: los largos exigen
// precio por encima de la media y los cortos por debajo. Sin media definida
// no hay señal.
func ApplyTrend(dir Direction, value float64, trend Metric) Direction {
	if dir == DirectionNone {
		return dir
	}
	if !trend.Valid {
		return DirectionNone
	}
	if dir == DirectionLong && value > trend.Value {
		return dir
	}
	if dir == DirectionShort && value < trend.Value {
		return dir
	}
	return DirectionNone
}
