package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Metric es un valor numérico que puede no estar definido (warm-up del RSI,
// Sharpe con varianza cero, medias sobre subconjuntos vacíos...).
// Nunca contiene NaN ni Inf: Defined los convierte en Undefined.
type Metric struct {
	Value float64
	Valid bool
}

// Defined construye un Metric válido. NaN e Inf se degradan a Undefined.
func Defined(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Metric{}
	}
	return Metric{Value: v, Valid: true}
}

// Undefined devuelve el marcador "sin valor".
func Undefined() Metric {
	return Metric{}
}

// Or devuelve el valor o fallback si no está definido.
func (m Metric) Or(fallback float64) float64 {
	if !m.Valid {
		return fallback
	}
	return m.Value
}

// Format formatea el valor con el verbo dado o devuelve "N/A".
func (m Metric) Format(verb string) string {
	if !m.Valid {
		return "N/A"
	}
	return fmt.Sprintf(verb, m.Value)
}

func (m Metric) String() string {
	return m.Format("%.4f")
}

// MarshalJSON serializa los valores indefinidos como null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON acepta un número o null.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*m = Undefined()
		return nil
	}
	*m = Defined(*v)
	return nil
}
