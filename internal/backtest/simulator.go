package backtest

import (
	"github.com/alejandrodnm/nadexbt/internal/domain"
)

// SimulationResult es el ledger de trades más los descartes de la simulación.
type SimulationResult struct {
	Trades      []domain.SimulatedTrade
	DataQuality int // strike/expected ausente o no numérico
	NoSignal    int // ticker-día sin señal o con dirección none
}

// Simulate aplica la señal de cada ticker-día a TODOS los strikes de ese día
// (fan-out multi-strike): K strikes con señal producen exactamente K trades.
//
// El resultado se lee de la etiqueta InTheMoney; el simulador no lo infiere de
// precios. Con ShortBuy un short se opera igual que un long; con ShortSell
// se vende el binario. Las observaciones con precios inválidos se saltan y
// se cuentan, nunca abortan la ejecución.
func Simulate(
	obs []domain.ContractObservation,
	signals Signals,
	pricing domain.PricingModel,
	feePerContract float64,
	shortMode domain.ShortMode,
) SimulationResult {
	var res SimulationResult
	maxPayout := pricing.Limits().MaxPayout

	for _, o := range obs {
		if !o.HasValidPrices() {
			res.DataQuality++
			continue
		}
		sig, ok := signals[o.Key()]
		if !ok || sig.Direction == domain.DirectionNone {
			res.NoSignal++
			continue
		}

		side := shortMode.Side(sig.Direction)
		entry := domain.EntryCost(pricing, side, o.ExpectedValue, o.StrikePrice)
		outcome := domain.ResolveOutcome(side, o.InTheMoney)
		gross, fees, net := domain.ContractPnL(outcome, entry, maxPayout, feePerContract)

		res.Trades = append(res.Trades, domain.SimulatedTrade{
			Ticker:         o.Ticker,
			Date:           o.Date,
			StrikePrice:    o.StrikePrice,
			ExpectedValue:  o.ExpectedValue,
			Direction:      sig.Direction,
			IndicatorValue: sig.IndicatorValue,
			InTheMoney:     o.InTheMoney,
			EntryCost:      entry,
			Outcome:        outcome,
			GrossPnL:       gross,
			Fees:           fees,
			NetPnL:         net,
		})
	}
	return res
}
