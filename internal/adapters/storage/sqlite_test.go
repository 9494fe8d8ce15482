package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/nadexbt/internal/adapters/storage"
	"github.com/alejandrodnm/nadexbt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseDay = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func makeTrade(ticker string, day int, win bool) domain.SimulatedTrade {
	t := domain.SimulatedTrade{
		Ticker:         ticker,
		Date:           baseDay.AddDate(0, 0, day),
		StrikePrice:    5000,
		ExpectedValue:  5010,
		Direction:      domain.DirectionLong,
		IndicatorValue: domain.Defined(24.5),
		EntryCost:      5,
		Outcome:        domain.OutcomeLoss,
		GrossPnL:       -5,
		Fees:           1,
		NetPnL:         -6,
	}
	if win {
		t.InTheMoney = true
		t.Outcome = domain.OutcomeWin
		t.GrossPnL, t.Fees, t.NetPnL = 5, 2, 3
	}
	return t
}

func makeRun(id string, createdAt time.Time, trades ...domain.SimulatedTrade) domain.BacktestRun {
	return domain.BacktestRun{
		ID:        id,
		CreatedAt: createdAt,
		Params: map[string]any{
			"rsi_period":     14,
			"pricing_model":  "tiered",
			"pricing_preset": "3tier",
		},
		Observations: 120,
		Signals:      len(trades),
		Excluded:     domain.Exclusions{DataQuality: 2, NoSignal: 40},
		Trades:       trades,
		Summary:      domain.Aggregate(trades, domain.DefaultPeriodsPerYear),
	}
}

func TestSQLiteStorage_SaveAndListRuns(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveRun(ctx, makeRun("run-old", now.Add(-time.Hour),
		makeTrade("US500", 0, true), makeTrade("US500", 1, false))))
	require.NoError(t, db.SaveRun(ctx, makeRun("run-new", now,
		makeTrade("US500", 0, true), makeTrade("GOLD", 1, true), makeTrade("GOLD", 2, false))))

	runs, err := db.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Más reciente primero
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-old", runs[1].ID)
	assert.True(t, runs[0].CreatedAt.Equal(now))
	assert.Equal(t, "tiered/3tier", runs[0].Pricing)
	assert.Equal(t, 3, runs[0].TradeCount)
	assert.InDelta(t, 2.0/3, runs[0].WinRate, 1e-9)
	assert.InDelta(t, 0.0, runs[0].NetPnL, 1e-9)
	assert.True(t, runs[0].SharpeRatio.Valid)
}

func TestSQLiteStorage_ListRunsLimit(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	now := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.SaveRun(ctx, makeRun(id, now.Add(time.Duration(i)*time.Millisecond))))
	}

	runs, err := db.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	all, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteStorage_UndefinedMetricsAreNull(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	// un solo trade: Sharpe indefinido
	require.NoError(t, db.SaveRun(ctx, makeRun("single", time.Now(), makeTrade("US500", 0, true))))

	runs, err := db.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].SharpeRatio.Valid)
	assert.Equal(t, "N/A", runs[0].SharpeRatio.String())
}

func TestSQLiteStorage_GetRunTrades(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	noIndicator := makeTrade("GOLD", 2, false)
	noIndicator.Direction = domain.DirectionShort
	noIndicator.IndicatorValue = domain.Undefined()
	trades := []domain.SimulatedTrade{makeTrade("US500", 0, true), makeTrade("US500", 1, false), noIndicator}
	require.NoError(t, db.SaveRun(ctx, makeRun("r1", time.Now(), trades...)))

	got, err := db.GetRunTrades(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, trades, got)
}

func TestSQLiteStorage_GetRunTrades_UnknownRun(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	got, err := db.GetRunTrades(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteStorage_DuplicateRunID(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.SaveRun(ctx, makeRun("dup", time.Now(), makeTrade("US500", 0, true))))
	err = db.SaveRun(ctx, makeRun("dup", time.Now(), makeTrade("US500", 0, false)))
	require.Error(t, err)

	// la transacción fallida no deja trades huérfanos
	got, err := db.GetRunTrades(ctx, "dup")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.OutcomeWin, got[0].Outcome)
}
