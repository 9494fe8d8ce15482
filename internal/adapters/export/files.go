package export

// files.go — export de una ejecución a ficheros planos:
//
//	trades.csv          ledger completo
//	kpi_summary.json    KPIs + parámetros + exclusiones
//	daily_metrics.csv   serie diaria (P&L, acumulado, drawdown)
//
// Los importes se escriben con 2 decimales exactos (decimal), los KPIs
// indefinidos como celda vacía en CSV y null en JSON.

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alejandrodnm/nadexbt/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	TradesFile = "trades.csv"
	KPIFile    = "kpi_summary.json"
	DailyFile  = "daily_metrics.csv"

	dateLayout = "2006-01-02"
)

var (
	tradeHeader = []string{
		"Date", "Ticker", "Strike Price", "Exp Value", "direction", "rsi",
		"entry_cost", "In the Money", "outcome", "gross_pnl", "fees", "pnl",
	}
	dailyHeader = []string{
		"Date", "trades", "wins", "gross_pnl", "pnl", "entry_cost",
		"cumulative_pnl", "running_max", "drawdown",
	}
)

// Summary es el contenido de kpi_summary.json.
type Summary struct {
	RunID          string            `json:"run_id"`
	GeneratedAt    time.Time         `json:"generated_at"`
	StrategyParams map[string]any    `json:"strategy_params"`
	Observations   int               `json:"observations"`
	Signals        int               `json:"signals"`
	Excluded       domain.Exclusions `json:"excluded"`
	domain.KPISummary
}

// Files implementa ports.Reporter escribiendo en un directorio.
type Files struct {
	dir string
}

// NewFiles crea un exportador sobre dir. El directorio se crea al exportar.
func NewFiles(dir string) *Files {
	return &Files{dir: dir}
}

// Report escribe los tres ficheros de la ejecución.
func (f *Files) Report(_ context.Context, run domain.BacktestRun) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("export.Report: mkdir %q: %w", f.dir, err)
	}
	if err := f.writeTrades(run.Trades); err != nil {
		return err
	}
	if err := f.writeSummary(run); err != nil {
		return err
	}
	if err := f.writeDaily(run.Summary.Daily); err != nil {
		return err
	}
	slog.Info("results exported", "dir", f.dir, "trades", len(run.Trades))
	return nil
}

func (f *Files) writeTrades(trades []domain.SimulatedTrade) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			t.Date.Format(dateLayout),
			t.Ticker,
			formatFloat(t.StrikePrice),
			formatFloat(t.ExpectedValue),
			t.Direction.String(),
			formatMetric(t.IndicatorValue),
			money(t.EntryCost),
			boolFlag(t.InTheMoney),
			string(t.Outcome),
			money(t.GrossPnL),
			money(t.Fees),
			money(t.NetPnL),
		})
	}
	return f.writeCSV(TradesFile, tradeHeader, rows)
}

func (f *Files) writeDaily(days []domain.DailyMetric) error {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Date.Format(dateLayout),
			strconv.Itoa(d.Trades),
			strconv.Itoa(d.Wins),
			money(d.GrossPnL),
			money(d.NetPnL),
			money(d.EntryCost),
			money(d.CumulativePnL),
			money(d.RunningMax),
			money(d.Drawdown),
		})
	}
	return f.writeCSV(DailyFile, dailyHeader, rows)
}

func (f *Files) writeSummary(run domain.BacktestRun) error {
	s := Summary{
		RunID:          run.ID,
		GeneratedAt:    run.CreatedAt.UTC(),
		StrategyParams: run.Params,
		Observations:   run.Observations,
		Signals:        run.Signals,
		Excluded:       run.Excluded,
		KPISummary:     run.Summary,
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("export.Report: encode %s: %w", KPIFile, err)
	}
	path := filepath.Join(f.dir, KPIFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("export.Report: write %s: %w", path, err)
	}
	return nil
}

func (f *Files) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(f.dir, name)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export.Report: create %s: %w", path, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("export.Report: write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("export.Report: write %s: %w", path, err)
	}
	return out.Close()
}

// ReadSummary carga un kpi_summary.json exportado previamente.
func ReadSummary(dir string) (Summary, error) {
	data, err := os.ReadFile(filepath.Join(dir, KPIFile))
	if err != nil {
		return Summary{}, fmt.Errorf("export.ReadSummary: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("export.ReadSummary: decode: %w", err)
	}
	return s, nil
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMetric(m domain.Metric) string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'f', 4, 64)
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
