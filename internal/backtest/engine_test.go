package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/alejandrodnm/nadexbt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	obs   []domain.ContractObservation
	err   error
	calls int
}

func (f *fakeSource) Load(context.Context) ([]domain.ContractObservation, error) {
	f.calls++
	return f.obs, f.err
}

type fakeStore struct {
	saved []domain.BacktestRun
	err   error
}

func (f *fakeStore) SaveRun(_ context.Context, run domain.BacktestRun) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, run)
	return nil
}

func (f *fakeStore) ListRuns(context.Context, int) ([]domain.RunRecord, error) { return nil, nil }

func (f *fakeStore) GetRunTrades(context.Context, string) ([]domain.SimulatedTrade, error) {
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

type fakeReporter struct {
	runs []domain.BacktestRun
	err  error
}

func (f *fakeReporter) Report(_ context.Context, run domain.BacktestRun) error {
	f.runs = append(f.runs, run)
	return f.err
}

func TestEngine_Run(t *testing.T) {
	src := &fakeSource{obs: fallingSeries("A", 6, -1, 0, 1)}
	store := &fakeStore{}
	rep := &fakeReporter{}

	run, err := New(runConfig(), src, store, rep).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Equal(t, 18, run.Observations)
	assert.Equal(t, 4, run.Signals)
	assert.Len(t, run.Trades, 12)
	assert.Equal(t, 2, run.Params["rsi_period"])

	require.Len(t, store.saved, 1)
	assert.Equal(t, run.ID, store.saved[0].ID)
	require.Len(t, rep.runs, 1)
	assert.Equal(t, run.ID, rep.runs[0].ID)
}

func TestEngine_Run_InvalidConfigDoesNotLoad(t *testing.T) {
	cfg := runConfig()
	cfg.RSIPeriod = 0
	src := &fakeSource{}

	_, err := New(cfg, src, nil).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Zero(t, src.calls)
}

func TestEngine_Run_SourceError(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := New(runConfig(), &fakeSource{err: boom}, nil).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_Run_StoreError(t *testing.T) {
	boom := errors.New("db locked")
	src := &fakeSource{obs: fallingSeries("A", 4, 0)}

	run, err := New(runConfig(), src, &fakeStore{err: boom}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, run.ID)
}

func TestEngine_Run_ReporterErrorIsNotFatal(t *testing.T) {
	src := &fakeSource{obs: fallingSeries("A", 4, 0)}
	failing := &fakeReporter{err: errors.New("stdout closed")}
	ok := &fakeReporter{}

	_, err := New(runConfig(), src, nil, failing, ok).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, failing.runs, 1)
	assert.Len(t, ok.runs, 1)
}

func TestEngine_RunIDsAreUnique(t *testing.T) {
	src := &fakeSource{obs: fallingSeries("A", 4, 0)}
	e := New(runConfig(), src, nil)

	a, err := e.Run(context.Background())
	require.NoError(t, err)
	b, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEngine_Compare(t *testing.T) {
	src := &fakeSource{obs: fallingSeries("A", 6, 0)}
	variants := []Variant{
		{Name: "rsi2", RSIPeriod: 2, Oversold: 30, Overbought: 70},
		{Name: "rsi3", RSIPeriod: 3, Oversold: 30, Overbought: 70},
	}

	out, err := New(runConfig(), src, nil).Compare(context.Background(), variants)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 4, out[0].Summary.TradeCount)
	assert.Equal(t, 3, out[1].Summary.TradeCount)
}
