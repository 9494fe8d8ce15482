package domain

// RSIMethod selecciona cómo se suavizan ganancias y pérdidas.
type RSIMethod string

const (
	// RSIRolling usa la media simple de las últimas `period` variaciones.
	RSIRolling RSIMethod = "rolling"
	// RSIWilder siembra con la media simple y después aplica el suavizado de Wilder.
	RSIWilder RSIMethod = "wilder"
)

// ComputeRSI calcula el RSI sobre una serie ordenada cronológicamente.
//
// El resultado tiene la misma longitud que values. Las primeras `period`
// posiciones no tienen historia suficiente y quedan Undefined; con menos de
// period+1 valores toda la salida es Undefined. Si la media de pérdidas es 0
// el RSI satura en 100.
func ComputeRSI(values []float64, period int, method RSIMethod) []Metric {
	out := make([]Metric, len(values))
	if period < 1 || len(values) <= period {
		return out
	}

	p := float64(period)
	var sumGain, sumLoss float64
	for i := 1; i <= period; i++ {
		g, l := splitDelta(values[i] - values[i-1])
		sumGain += g
		sumLoss += l
	}
	avgGain, avgLoss := sumGain/p, sumLoss/p
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		g, l := splitDelta(values[i] - values[i-1])
		switch method {
		case RSIWilder:
			avgGain = (avgGain*(p-1) + g) / p
			avgLoss = (avgLoss*(p-1) + l) / p
		default:
			// ventana deslizante: entra la variación i, sale la i-period
			og, ol := splitDelta(values[i-period] - values[i-period-1])
			sumGain += g - og
			sumLoss += l - ol
			avgGain, avgLoss = clampZero(sumGain)/p, clampZero(sumLoss)/p
		}
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

// SMA devuelve la media móvil simple; las primeras period-1 posiciones son Undefined.
func SMA(values []float64, period int) []Metric {
	out := make([]Metric, len(values))
	if period < 1 {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = Defined(sum / float64(period))
		}
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) Metric {
	if avgLoss == 0 {
		return Defined(100)
	}
	rs := avgGain / avgLoss
	return Defined(100 - 100/(1+rs))
}

func splitDelta(d float64) (gain, loss float64) {
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

// clampZero elimina residuos negativos del orden de 1e-16 que deja la suma
// deslizante al restar variaciones.
func clampZero(v float64) float64 {
	if v < 1e-12 {
		return 0
	}
	return v
}
