package backtest

import (
	"time"

	"github.com/alejandrodnm/nadexbt/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func obsAt(ticker string, d time.Time, strike, expected float64, itm bool) domain.ContractObservation {
	return domain.ContractObservation{
		Ticker:        ticker,
		Date:          d,
		StrikePrice:   strike,
		ExpectedValue: expected,
		InTheMoney:    itm,
	}
}

func twoBandModel() domain.PricingModel {
	return domain.NewTieredModel([]domain.PriceBand{
		{Label: "ITM", Above: 0, Price: 7.50},
		{Label: "OTM", Price: 2.50},
	}, domain.PriceLimits{MinPrice: 0, MaxPayout: 10})
}

func longOn(ticker string, d time.Time) Signals {
	s := domain.Signal{Ticker: ticker, Date: d, Direction: domain.DirectionLong, IndicatorValue: domain.Defined(20)}
	return Signals{s.Key(): s}
}

// fallingSeries genera un ticker cuyo subyacente cae a diario: con RSI(2)
// da señal long desde el día 2. Cada día lleva los strikes indicados
// (offset sobre el expected value).
func fallingSeries(ticker string, days int, strikeOffsets ...float64) []domain.ContractObservation {
	var out []domain.ContractObservation
	for i := 0; i < days; i++ {
		ev := 110 - 2*float64(i)
		for _, off := range strikeOffsets {
			out = append(out, obsAt(ticker, day(i), ev+off, ev, off < 0))
		}
	}
	return out
}

func ptr(v float64) *float64 { return &v }
