package domain

import "time"

// Outcome es el resultado de un contrato simulado.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Side es el lado efectivo del contrato.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ShortMode decide cómo se ejecuta una señal short.
type ShortMode string

const (
	// ShortBuy trata el short como cualquier otra señal: compra el binario al
	// precio del modelo y gana si liquida ITM.
	ShortBuy ShortMode = "buy"
	// ShortSell vende el binario: cuesta max_payout - precio y gana si liquida OTM.
	ShortSell ShortMode = "sell"
)

// Side devuelve el lado con el que se abre una señal en esta dirección.
func (m ShortMode) Side(dir Direction) Side {
	if m == ShortSell && dir == DirectionShort {
		return SideSell
	}
	return SideBuy
}

// SimulatedTrade es un contrato abierto por la señal diaria en un strike concreto.
//
// Invariantes:
//   - EntryCost ∈ [min_price, max_payout]
//   - GrossPnL = max_payout - EntryCost si gana, -EntryCost si pierde
//   - NetPnL = GrossPnL - Fees (1 fee de entrada; los ganadores pagan además la de salida)
type SimulatedTrade struct {
	Ticker         string
	Date           time.Time
	StrikePrice    float64
	ExpectedValue  float64
	Direction      Direction
	IndicatorValue Metric
	InTheMoney     bool // etiqueta de liquidación de la observación
	EntryCost      float64
	Outcome        Outcome
	GrossPnL       float64
	Fees           float64
	NetPnL         float64
}

// IsWin devuelve true si el contrato liquidó a favor.
func (t SimulatedTrade) IsWin() bool {
	return t.Outcome == OutcomeWin
}

// ResolveOutcome decide el resultado a partir de la etiqueta de liquidación:
// el comprador gana si liquidó ITM, el vendedor si liquidó OTM.
func ResolveOutcome(side Side, settledInTheMoney bool) Outcome {
	if (side == SideBuy) == settledInTheMoney {
		return OutcomeWin
	}
	return OutcomeLoss
}

// ContractPnL calcula el P&L bruto y neto de un contrato.
// Las pérdidas pagan solo la fee de entrada; las ganancias pagan entrada y salida.
func ContractPnL(outcome Outcome, entryCost, maxPayout, feePerContract float64) (gross, fees, net float64) {
	fees = feePerContract
	if outcome == OutcomeWin {
		gross = maxPayout - entryCost
		fees += feePerContract
	} else {
		gross = -entryCost
	}
	return gross, fees, gross - fees
}
