package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/alejandrodnm/nadexbt/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// DefaultSample es el número de trades de muestra que se imprimen.
const DefaultSample = 10

// Console implementa ports.Reporter sobre un io.Writer.
type Console struct {
	out     io.Writer
	sample  int
	verbose bool
}

// NewConsole crea un reporter que escribe a stdout.
// sample < 0 oculta la muestra de trades; verbose añade la serie diaria.
func NewConsole(sample int, verbose bool) *Console {
	return &Console{out: os.Stdout, sample: sample, verbose: verbose}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, sample: DefaultSample}
}

// Report imprime el resumen de la ejecución.
func (c *Console) Report(_ context.Context, run domain.BacktestRun) error {
	fmt.Fprintf(c.out, "\n╔══════════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(c.out, "║  NADEX RSI BACKTEST — multi-strike fan-out                       ║\n")
	fmt.Fprintf(c.out, "╚══════════════════════════════════════════════════════════════════╝\n")
	fmt.Fprintf(c.out, "  run %s  (%s)\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(c.out, "  %s\n\n", formatParams(run.Params))

	if run.Summary.TradeCount == 0 {
		fmt.Fprintf(c.out, "  No trades generated (%d observations, %d signals).\n\n",
			run.Observations, run.Signals)
		c.printExclusions(run)
		return nil
	}

	c.printKPIs(run.Summary)
	c.printExclusions(run)
	if c.sample > 0 {
		c.PrintTrades(sampleTrades(run.Trades, c.sample))
	}
	if c.verbose {
		c.printDaily(run.Summary.Daily)
	}
	return nil
}

func (c *Console) printKPIs(k domain.KPISummary) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")

	recovery := "not recovered"
	if k.Recovered {
		recovery = fmt.Sprintf("%d days", k.RecoveryDays)
	}
	rows := [][]string{
		{"Period", fmt.Sprintf("%s → %s", k.DateStart.Format("2006-01-02"), k.DateEnd.Format("2006-01-02"))},
		{"Trades", fmt.Sprintf("%d (W:%d L:%d)", k.TradeCount, k.Wins, k.Losses)},
		{"Win rate", fmt.Sprintf("%.2f%%", k.WinRate*100)},
		{"Gross P&L", usd(k.GrossPnLTotal)},
		{"Fees", usd(k.FeesTotal)},
		{"Net P&L", usd(k.NetPnLTotal)},
		{"Avg win (gross)", usdMetric(k.AvgWin)},
		{"Avg loss (gross)", usdMetric(k.AvgLoss)},
		{"Avg entry cost", usdMetric(k.AvgEntryCost)},
		{"Capital used", usd(k.CapitalUsed)},
		{"Return on capital", pctMetric(k.ReturnOnCapital)},
		{"Sharpe (annualised)", k.SharpeRatio.Format("%.3f")},
		{"Max drawdown", usd(k.MaxDrawdown)},
		{"Max drawdown %", k.MaxDrawdownPct.Format("%.1f%%")},
		{"Recovery", recovery},
	}
	for _, r := range rows {
		table.Append(r[0], r[1])
	}
	table.Render()
}

func (c *Console) printExclusions(run domain.BacktestRun) {
	e := run.Excluded
	fmt.Fprintf(c.out, "  Observations: %d | signals: %d\n", run.Observations, run.Signals)
	fmt.Fprintf(c.out, "  Excluded → data quality:%d ticker:%d strike distance:%d not ATM:%d no signal:%d\n\n",
		e.DataQuality, e.ExcludedTicker, e.StrikeDistance, e.NotATM, e.NoSignal)
}

// PrintTrades imprime una tabla de trades.
func (c *Console) PrintTrades(trades []domain.SimulatedTrade) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "  No trades.")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Ticker", "Strike", "Exp Value", "Dir", "RSI", "Entry", "Outcome", "Net")
	for _, t := range trades {
		table.Append(
			t.Date.Format("2006-01-02"),
			t.Ticker,
			fmt.Sprintf("%.2f", t.StrikePrice),
			fmt.Sprintf("%.2f", t.ExpectedValue),
			t.Direction.String(),
			t.IndicatorValue.Format("%.1f"),
			usd(t.EntryCost),
			string(t.Outcome),
			usd(t.NetPnL),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

func (c *Console) printDaily(days []domain.DailyMetric) {
	if len(days) == 0 {
		return
	}
	fmt.Fprintln(c.out, "=== DAILY ===")
	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Trades", "Wins", "Net", "Cumulative", "Drawdown")
	for _, d := range days {
		table.Append(
			d.Date.Format("2006-01-02"),
			fmt.Sprintf("%d", d.Trades),
			fmt.Sprintf("%d", d.Wins),
			usd(d.NetPnL),
			usd(d.CumulativePnL),
			usd(d.Drawdown),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

// ComparisonRow es una fila de la tabla de comparación de estrategias.
type ComparisonRow struct {
	Name    string
	Signals int
	Summary domain.KPISummary
}

// PrintComparison imprime las variantes en el orden recibido y marca la de mayor P&L neto.
func (c *Console) PrintComparison(rows []ComparisonRow) {
	if len(rows) == 0 {
		fmt.Fprintln(c.out, "\n  No strategies to compare.")
		return
	}

	fmt.Fprintf(c.out, "\n=== STRATEGY COMPARISON (%d variants) ===\n", len(rows))
	table := tablewriter.NewWriter(c.out)
	table.Header("Strategy", "Signals", "Trades", "Win rate", "Net P&L", "Sharpe", "Max DD", "ROC")

	best := 0
	for i, r := range rows {
		if r.Summary.NetPnLTotal > rows[best].Summary.NetPnLTotal {
			best = i
		}
		k := r.Summary
		table.Append(
			r.Name,
			fmt.Sprintf("%d", r.Signals),
			fmt.Sprintf("%d", k.TradeCount),
			fmt.Sprintf("%.2f%%", k.WinRate*100),
			usd(k.NetPnLTotal),
			k.SharpeRatio.Format("%.3f"),
			usd(k.MaxDrawdown),
			pctMetric(k.ReturnOnCapital),
		)
	}
	table.Render()
	fmt.Fprintf(c.out, "  Best net P&L: %s (%s)\n\n", rows[best].Name, usd(rows[best].Summary.NetPnLTotal))
}

// PrintHistory imprime las ejecuciones guardadas.
func (c *Console) PrintHistory(runs []domain.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "\n  No stored runs.")
		return
	}
	fmt.Fprintf(c.out, "\n=== RUN HISTORY (last %d) ===\n", len(runs))
	table := tablewriter.NewWriter(c.out)
	table.Header("Run", "Created", "Pricing", "Trades", "Win rate", "Net P&L", "Sharpe", "Max DD")
	for _, r := range runs {
		table.Append(
			shortID(r.ID),
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Pricing,
			fmt.Sprintf("%d", r.TradeCount),
			fmt.Sprintf("%.2f%%", r.WinRate*100),
			usd(r.NetPnL),
			r.SharpeRatio.Format("%.3f"),
			usd(r.MaxDrawdown),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

// --- helpers de formato ---

// sampleTrades devuelve los n primeros trades.
func sampleTrades(trades []domain.SimulatedTrade, n int) []domain.SimulatedTrade {
	if len(trades) <= n {
		return trades
	}
	return trades[:n]
}

func usd(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", math.Abs(v))
	}
	return fmt.Sprintf("$%.2f", v)
}

func usdMetric(m domain.Metric) string {
	if !m.Valid {
		return "N/A"
	}
	return usd(m.Value)
}

func pctMetric(m domain.Metric) string {
	if !m.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", m.Value*100)
}

// formatParams imprime los parámetros en orden estable: clave=valor.
func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
