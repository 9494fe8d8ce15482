package historical

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nadexExport = `Ticker,Date,Strike Price,Exp Value,In the Money
US500,06-Jan-25,5900,5912.5,1
US500,06-Jan-25,5925,5912.5,0
GOLD,07-Jan-25,"2,650",2655.1,1
`

func TestParse_NadexExport(t *testing.T) {
	s := NewCSVSource("")
	obs, err := s.Parse(strings.NewReader(nadexExport), "test.csv")
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, "US500", obs[0].Ticker)
	assert.True(t, obs[0].Date.Equal(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 5900.0, obs[0].StrikePrice)
	assert.Equal(t, 5912.5, obs[0].ExpectedValue)
	assert.True(t, obs[0].InTheMoney)
	assert.False(t, obs[1].InTheMoney)
	assert.Equal(t, 2650.0, obs[2].StrikePrice)

	assert.Equal(t, LoadStats{Rows: 3, Loaded: 3}, s.Stats())
}

func TestParse_SnakeCaseHeaderAnyOrder(t *testing.T) {
	in := "in_the_money,expected_value,strike_price,date,ticker,extra\n" +
		"true,101,100,2025-02-03,CL,x\n"
	obs, err := NewCSVSource("").Parse(strings.NewReader(in), "snake.csv")
	require.NoError(t, err)
	require.Len(t, obs, 1)

	assert.Equal(t, "CL", obs[0].Ticker)
	assert.Equal(t, 100.0, obs[0].StrikePrice)
	assert.Equal(t, 101.0, obs[0].ExpectedValue)
	assert.True(t, obs[0].InTheMoney)
	assert.Equal(t, time.February, obs[0].Date.Month())
}

func TestParse_MissingColumn(t *testing.T) {
	_, err := NewCSVSource("").Parse(strings.NewReader("Ticker,Date,Strike Price\n"), "bad.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "expected")
	assert.Contains(t, err.Error(), "itm")
}

func TestParse_DataQuality(t *testing.T) {
	in := `Ticker,Date,Strike Price,Exp Value,In the Money
US500,06-Jan-25,n/a,5912.5,1
US500,06-Jan-25,5900,,0
,06-Jan-25,5900,5912.5,1
US500,someday,5900,5912.5,1
US500,06-Jan-25,5900,5912.5,maybe
US500,06-Jan-25
US500,07-Jan-25,5900,5912.5,yes
`
	s := NewCSVSource("")
	obs, err := s.Parse(strings.NewReader(in), "dq.csv")
	require.NoError(t, err)

	// los precios ilegibles se cargan como NaN; el resto de fallos se descartan
	require.Len(t, obs, 3)
	assert.True(t, math.IsNaN(obs[0].StrikePrice))
	assert.False(t, obs[0].HasValidPrices())
	assert.True(t, math.IsNaN(obs[1].ExpectedValue))
	assert.True(t, obs[2].HasValidPrices())

	st := s.Stats()
	assert.Equal(t, 7, st.Rows)
	assert.Equal(t, 3, st.Loaded)
	assert.Equal(t, 2, st.BadNumeric)
	assert.Equal(t, 1, st.BadTicker)
	assert.Equal(t, 1, st.BadDate)
	assert.Equal(t, 1, st.BadFlag)
	assert.Equal(t, 1, st.ShortRecord)
	assert.Equal(t, 4, st.Dropped())
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte(nadexExport), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte(
		"Ticker,Date,Strike Price,Exp Value,In the Money\nCL,06-Jan-25,70,71,1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	s := NewCSVSource(dir)
	obs, err := s.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, obs, 4)
	assert.Equal(t, "CL", obs[0].Ticker) // a.csv primero
	assert.Equal(t, 2, s.Stats().Files)
}

func TestLoad_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.csv")
	require.NoError(t, os.WriteFile(path, []byte(nadexExport), 0o644))

	obs, err := NewCSVSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, obs, 3)
}

func TestLoad_Errors(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv")).Load(context.Background())
	assert.Error(t, err)

	_, err = NewCSVSource(t.TempDir()).Load(context.Background())
	assert.ErrorContains(t, err, "no csv files")
}
