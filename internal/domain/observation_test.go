package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservation_KeyNormalizesToDay(t *testing.T) {
	morning := ContractObservation{Ticker: "US500", Date: time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC)}
	evening := ContractObservation{Ticker: "US500", Date: time.Date(2025, 1, 6, 21, 0, 0, 0, time.UTC)}
	other := ContractObservation{Ticker: "GOLD", Date: morning.Date}

	assert.Equal(t, morning.Key(), evening.Key())
	assert.NotEqual(t, morning.Key(), other.Key())
}

func TestObservation_HasValidPrices(t *testing.T) {
	cases := map[string]struct {
		strike, expected float64
		want             bool
	}{
		"valid":        {100, 101, true},
		"nan strike":   {math.NaN(), 101, false},
		"nan expected": {100, math.NaN(), false},
		"zero strike":  {0, 101, false},
		"negative":     {100, -1, false},
		"inf":          {math.Inf(1), 101, false},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			o := ContractObservation{StrikePrice: c.strike, ExpectedValue: c.expected}
			assert.Equal(t, c.want, o.HasValidPrices())
		})
	}
}

func TestObservation_MoneynessAndDistance(t *testing.T) {
	o := ContractObservation{StrikePrice: 100, ExpectedValue: 102}
	assert.InDelta(t, 0.02, o.Moneyness(), 1e-12)
	assert.InDelta(t, 2.0/102, o.StrikeDistance(), 1e-12)

	otm := ContractObservation{StrikePrice: 105, ExpectedValue: 102}
	assert.Less(t, otm.Moneyness(), 0.0)
}
