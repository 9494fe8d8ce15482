package domain

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// DefaultPeriodsPerYear anualiza el Sharpe con días de trading.
const DefaultPeriodsPerYear = 252

// KPISummary agrega el conjunto completo de trades de un backtest.
// Se calcula una vez por ejecución y no se actualiza parcialmente.
type KPISummary struct {
	TradeCount      int     `json:"trade_count"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	WinRate         float64 `json:"win_rate"`
	GrossPnLTotal   float64 `json:"gross_pnl_total"`
	FeesTotal       float64 `json:"fees_total"`
	NetPnLTotal     float64 `json:"net_pnl_total"`
	AvgWin          Metric  `json:"avg_win"`
	AvgLoss         Metric  `json:"avg_loss"`
	AvgEntryCost    Metric  `json:"avg_entry_cost"`
	SharpeRatio     Metric  `json:"sharpe_ratio"`
	MaxDrawdown     float64 `json:"max_drawdown"` // magnitud >= 0
	MaxDrawdownPct  Metric  `json:"max_drawdown_pct"`
	RecoveryDays    int     `json:"recovery_days"`
	Recovered       bool    `json:"recovered"`
	CapitalUsed     float64 `json:"capital_used"`
	ReturnOnCapital Metric  `json:"return_on_capital"`

	DateStart time.Time     `json:"date_start"`
	DateEnd   time.Time     `json:"date_end"`
	Daily     []DailyMetric `json:"-"`
}

// DailyMetric es el agregado de un día: base de la curva de P&L y el drawdown.
type DailyMetric struct {
	Date          time.Time
	Trades        int
	Wins          int
	GrossPnL      float64
	NetPnL        float64
	EntryCost     float64
	CumulativePnL float64
	RunningMax    float64
	Drawdown      float64 // RunningMax - CumulativePnL, >= 0
}

// Aggregate reduce los trades simulados a KPIs.
//
// Con trades vacío devuelve win rate 0 y las medias/Sharpe indefinidos.
// AvgWin y AvgLoss se calculan sobre el P&L bruto, antes de fees.
// El Sharpe usa la desviación muestral del P&L neto y queda indefinido con
// menos de 2 trades o varianza cero. periodsPerYear <= 0 usa 252.
func Aggregate(trades []SimulatedTrade, periodsPerYear float64) KPISummary {
	var k KPISummary
	if len(trades) == 0 {
		return k
	}
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}

	var gross, net, fees, capital decimal.Decimal
	nets := make([]float64, 0, len(trades))
	var winGross, lossGross []float64

	for _, t := range trades {
		gross = gross.Add(decimal.NewFromFloat(t.GrossPnL))
		net = net.Add(decimal.NewFromFloat(t.NetPnL))
		fees = fees.Add(decimal.NewFromFloat(t.Fees))
		capital = capital.Add(decimal.NewFromFloat(t.EntryCost))
		nets = append(nets, t.NetPnL)
		if t.IsWin() {
			winGross = append(winGross, t.GrossPnL)
		} else {
			lossGross = append(lossGross, t.GrossPnL)
		}
	}

	k.TradeCount = len(trades)
	k.Wins = len(winGross)
	k.Losses = len(lossGross)
	k.WinRate = float64(k.Wins) / float64(k.TradeCount)
	k.GrossPnLTotal = gross.InexactFloat64()
	k.NetPnLTotal = net.InexactFloat64()
	k.FeesTotal = fees.InexactFloat64()
	k.CapitalUsed = capital.InexactFloat64()
	k.AvgWin = meanOf(winGross)
	k.AvgLoss = meanOf(lossGross)
	k.AvgEntryCost = Defined(k.CapitalUsed / float64(k.TradeCount))
	if k.CapitalUsed > 0 {
		k.ReturnOnCapital = Defined(k.NetPnLTotal / k.CapitalUsed)
	}
	k.SharpeRatio = sharpe(nets, periodsPerYear)

	k.Daily = DailySeries(trades)
	k.DateStart = k.Daily[0].Date
	k.DateEnd = k.Daily[len(k.Daily)-1].Date
	dd := scanDrawdown(k.Daily)
	k.MaxDrawdown = dd.max
	k.MaxDrawdownPct = dd.pct
	k.RecoveryDays = dd.recoveryDays
	k.Recovered = dd.recovered
	return k
}

// DailySeries agrupa los trades por fecha, ordena cronológicamente y acumula el P&L neto.
// RunningMax es el máximo acumulado de la propia curva: hasta que no hay un
// pico, las pérdidas iniciales no cuentan como drawdown.
func DailySeries(trades []SimulatedTrade) []DailyMetric {
	type acc struct {
		trades, wins          int
		gross, net, entryCost decimal.Decimal
	}
	byDate := make(map[time.Time]*acc)
	for _, t := range trades {
		d := NewTickerDay("", t.Date).Date
		a, ok := byDate[d]
		if !ok {
			a = &acc{}
			byDate[d] = a
		}
		a.trades++
		if t.IsWin() {
			a.wins++
		}
		a.gross = a.gross.Add(decimal.NewFromFloat(t.GrossPnL))
		a.net = a.net.Add(decimal.NewFromFloat(t.NetPnL))
		a.entryCost = a.entryCost.Add(decimal.NewFromFloat(t.EntryCost))
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]DailyMetric, 0, len(dates))
	var cum decimal.Decimal
	peak := math.Inf(-1)
	for _, d := range dates {
		a := byDate[d]
		cum = cum.Add(a.net)
		c := cum.InexactFloat64()
		peak = math.Max(peak, c)
		out = append(out, DailyMetric{
			Date:          d,
			Trades:        a.trades,
			Wins:          a.wins,
			GrossPnL:      a.gross.InexactFloat64(),
			NetPnL:        a.net.InexactFloat64(),
			EntryCost:     a.entryCost.InexactFloat64(),
			CumulativePnL: c,
			RunningMax:    peak,
			Drawdown:      peak - c,
		})
	}
	return out
}

type drawdown struct {
	max          float64
	pct          Metric
	recoveryDays int
	recovered    bool
}

// scanDrawdown recorre la curva una sola vez: pico acumulado y mayor caída desde él.
// La recuperación es el primer día posterior al valle que vuelve al pico previo.
func scanDrawdown(days []DailyMetric) drawdown {
	var dd drawdown
	troughIdx := -1
	peakAtTrough := 0.0
	for i, d := range days {
		if d.Drawdown > dd.max {
			dd.max = d.Drawdown
			troughIdx = i
			peakAtTrough = d.RunningMax
		}
	}
	if troughIdx < 0 {
		dd.recovered = true
		return dd
	}
	if peakAtTrough > 0 {
		dd.pct = Defined(dd.max / peakAtTrough * 100)
	}
	for _, d := range days[troughIdx+1:] {
		if d.CumulativePnL >= peakAtTrough {
			dd.recovered = true
			dd.recoveryDays = int(d.Date.Sub(days[troughIdx].Date).Hours() / 24)
			break
		}
	}
	return dd
}

func sharpe(nets []float64, periodsPerYear float64) Metric {
	if len(nets) < 2 {
		return Undefined()
	}
	mean, std := stat.MeanStdDev(nets, nil)
	if std == 0 || math.IsNaN(std) {
		return Undefined()
	}
	return Defined(mean / std * math.Sqrt(periodsPerYear))
}

func meanOf(xs []float64) Metric {
	if len(xs) == 0 {
		return Undefined()
	}
	return Defined(stat.Mean(xs, nil))
}
