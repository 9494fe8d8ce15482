package backtest

import (
	"math"
	"testing"

	"github.com/alejandrodnm/nadexbt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate_WinAndLossScenario(t *testing.T) {
	obs := []domain.ContractObservation{
		obsAt("X", day(1), 100, 102, true),
		obsAt("X", day(1), 105, 102, false),
	}

	res := Simulate(obs, longOn("X", day(1)), twoBandModel(), 1.00, domain.ShortBuy)
	require.Len(t, res.Trades, 2)

	win, loss := res.Trades[0], res.Trades[1]
	assert.Equal(t, domain.OutcomeWin, win.Outcome)
	assert.InDelta(t, 7.50, win.EntryCost, 1e-9)
	assert.InDelta(t, 2.50, win.GrossPnL, 1e-9)
	assert.InDelta(t, 0.50, win.NetPnL, 1e-9)

	assert.Equal(t, domain.OutcomeLoss, loss.Outcome)
	assert.InDelta(t, 2.50, loss.EntryCost, 1e-9)
	assert.InDelta(t, -2.50, loss.GrossPnL, 1e-9)
	assert.InDelta(t, -3.50, loss.NetPnL, 1e-9)

	k := domain.Aggregate(res.Trades, 252)
	assert.InDelta(t, 0.5, k.WinRate, 1e-12)
}

func TestSimulate_FanOutToEveryStrike(t *testing.T) {
	const strikes = 7
	var obs []domain.ContractObservation
	for i := 0; i < strikes; i++ {
		obs = append(obs, obsAt("US500", day(0), 95+float64(i)*2, 100, i < 3))
	}
	obs = append(obs, obsAt("US500", day(1), 100, 100, true)) // sin señal

	res := Simulate(obs, longOn("US500", day(0)), twoBandModel(), 0, domain.ShortBuy)

	require.Len(t, res.Trades, strikes)
	assert.Equal(t, 1, res.NoSignal)
	for _, tr := range res.Trades {
		assert.Equal(t, domain.DirectionLong, tr.Direction)
		assert.True(t, tr.Date.Equal(day(0)))
	}
}

func TestSimulate_FeeAsymmetry(t *testing.T) {
	obs := []domain.ContractObservation{
		obsAt("X", day(0), 100, 102, true),
		obsAt("X", day(0), 105, 102, false),
	}
	const fee = 0.90
	res := Simulate(obs, longOn("X", day(0)), twoBandModel(), fee, domain.ShortBuy)
	require.Len(t, res.Trades, 2)

	assert.InDelta(t, res.Trades[0].GrossPnL-2*fee, res.Trades[0].NetPnL, 1e-9)
	assert.InDelta(t, res.Trades[1].GrossPnL-fee, res.Trades[1].NetPnL, 1e-9)
}

func TestSimulate_ShortBuysTheContractByDefault(t *testing.T) {
	obs := []domain.ContractObservation{
		obsAt("X", day(0), 100, 102, true),
		obsAt("X", day(0), 105, 102, false),
	}
	sig := domain.Signal{Ticker: "X", Date: day(0), Direction: domain.DirectionShort}
	res := Simulate(obs, Signals{sig.Key(): sig}, twoBandModel(), 1, domain.ShortBuy)
	require.Len(t, res.Trades, 2)

	// mismo resultado que un long: gana si liquida ITM, paga el precio del modelo
	win := res.Trades[0]
	assert.Equal(t, domain.DirectionShort, win.Direction)
	assert.Equal(t, domain.OutcomeWin, win.Outcome)
	assert.True(t, win.InTheMoney)
	assert.InDelta(t, 7.50, win.EntryCost, 1e-9)
	assert.InDelta(t, 2.50, win.GrossPnL, 1e-9)
	assert.InDelta(t, 0.50, win.NetPnL, 1e-9)

	loss := res.Trades[1]
	assert.Equal(t, domain.OutcomeLoss, loss.Outcome)
	assert.InDelta(t, 2.50, loss.EntryCost, 1e-9)
	assert.InDelta(t, -3.50, loss.NetPnL, 1e-9)
}

func TestSimulate_ShortSellModeWinsWhenSettledOutOfTheMoney(t *testing.T) {
	obs := []domain.ContractObservation{
		obsAt("X", day(0), 105, 102, false),
		obsAt("X", day(0), 100, 102, true),
	}
	sig := domain.Signal{Ticker: "X", Date: day(0), Direction: domain.DirectionShort}
	res := Simulate(obs, Signals{sig.Key(): sig}, twoBandModel(), 0, domain.ShortSell)
	require.Len(t, res.Trades, 2)

	// vender el OTM (precio 2.50) inmoviliza 7.50
	assert.Equal(t, domain.OutcomeWin, res.Trades[0].Outcome)
	assert.False(t, res.Trades[0].InTheMoney)
	assert.InDelta(t, 7.50, res.Trades[0].EntryCost, 1e-9)
	assert.InDelta(t, 2.50, res.Trades[0].GrossPnL, 1e-9)
	assert.Equal(t, domain.OutcomeLoss, res.Trades[1].Outcome)
	assert.InDelta(t, -2.50, res.Trades[1].GrossPnL, 1e-9)
}

func TestSimulate_SellModeLeavesLongsAlone(t *testing.T) {
	obs := []domain.ContractObservation{obsAt("X", day(0), 100, 102, true)}
	buy := Simulate(obs, longOn("X", day(0)), twoBandModel(), 1, domain.ShortBuy)
	sell := Simulate(obs, longOn("X", day(0)), twoBandModel(), 1, domain.ShortSell)
	assert.Equal(t, buy, sell)
}

func TestSimulate_DataQualityExclusions(t *testing.T) {
	obs := []domain.ContractObservation{
		obsAt("X", day(0), math.NaN(), 102, true),
		obsAt("X", day(0), 100, math.NaN(), true),
		obsAt("X", day(0), 0, 102, true),
		obsAt("X", day(0), 100, 102, true),
	}
	res := Simulate(obs, longOn("X", day(0)), twoBandModel(), 1, domain.ShortBuy)

	assert.Equal(t, 3, res.DataQuality)
	assert.Len(t, res.Trades, 1)
}

func TestSimulate_PnLSignInvariant(t *testing.T) {
	model := domain.NewProbabilityModel(0.01, domain.PriceLimits{MinPrice: 0, MaxPayout: 10})
	var obs []domain.ContractObservation
	for i := 0; i < 40; i++ {
		obs = append(obs, obsAt("X", day(0), 90+float64(i)*0.5, 100, i%3 == 0))
	}
	res := Simulate(obs, longOn("X", day(0)), model, 0, domain.ShortBuy)
	require.Len(t, res.Trades, len(obs))

	for _, tr := range res.Trades {
		assert.GreaterOrEqual(t, tr.EntryCost, 0.0)
		assert.LessOrEqual(t, tr.EntryCost, 10.0)
		if tr.IsWin() {
			assert.GreaterOrEqual(t, tr.GrossPnL, 0.0)
		} else {
			assert.LessOrEqual(t, tr.GrossPnL, 0.0)
		}
	}
}
