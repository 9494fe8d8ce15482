package storage

// sqlite.go — histórico de ejecuciones del backtester.
//
// Estrategia:
//   - `runs`: una fila por ejecución con parámetros (JSON) y KPIs. Los KPIs
//     indefinidos se guardan como NULL, nunca como NaN.
//   - `run_trades`: el ledger completo, una fila por contrato simulado.
//   - Todo se escribe en una única transacción: una ejecución está entera o no está.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/nadexbt/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id                TEXT PRIMARY KEY,
    created_at        TEXT    NOT NULL,
    pricing           TEXT    NOT NULL,
    params            TEXT    NOT NULL,
    observations      INTEGER NOT NULL DEFAULT 0,
    signals           INTEGER NOT NULL DEFAULT 0,
    excluded          TEXT    NOT NULL,
    trade_count       INTEGER NOT NULL DEFAULT 0,
    wins              INTEGER NOT NULL DEFAULT 0,
    losses            INTEGER NOT NULL DEFAULT 0,
    win_rate          REAL    NOT NULL DEFAULT 0,
    gross_pnl         REAL    NOT NULL DEFAULT 0,
    fees              REAL    NOT NULL DEFAULT 0,
    net_pnl           REAL    NOT NULL DEFAULT 0,
    avg_win           REAL,
    avg_loss          REAL,
    sharpe_ratio      REAL,
    max_drawdown      REAL    NOT NULL DEFAULT 0,
    max_drawdown_pct  REAL,
    capital_used      REAL    NOT NULL DEFAULT 0,
    return_on_capital REAL,
    date_start        TEXT,
    date_end          TEXT
);

CREATE TABLE IF NOT EXISTS run_trades (
    run_id         TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq            INTEGER NOT NULL,
    ticker         TEXT    NOT NULL,
    trade_date     TEXT    NOT NULL,
    strike_price   REAL    NOT NULL,
    expected_value REAL    NOT NULL,
    direction      TEXT    NOT NULL,
    indicator      REAL,
    in_the_money   INTEGER NOT NULL,
    entry_cost     REAL    NOT NULL,
    outcome        TEXT    NOT NULL,
    gross_pnl      REAL    NOT NULL,
    fees           REAL    NOT NULL,
    net_pnl        REAL    NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_ticker ON run_trades(run_id, ticker);
`

const (
	// timestampLayout tiene ancho fijo para que el orden de texto sea el cronológico.
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
	dateLayout      = "2006-01-02"
)

// SQLiteStorage implementa ports.RunStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveRun persiste el resumen de la ejecución y su ledger.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.BacktestRun) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: encode params: %w", err)
	}
	excluded, err := json.Marshal(run.Excluded)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: encode exclusions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	k := run.Summary
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, created_at, pricing, params, observations, signals, excluded,
			 trade_count, wins, losses, win_rate, gross_pnl, fees, net_pnl,
			 avg_win, avg_loss, sharpe_ratio, max_drawdown, max_drawdown_pct,
			 capital_used, return_on_capital, date_start, date_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(timestampLayout),
		pricingLabel(run.Params),
		string(params),
		run.Observations,
		run.Signals,
		string(excluded),
		k.TradeCount,
		k.Wins,
		k.Losses,
		k.WinRate,
		k.GrossPnLTotal,
		k.FeesTotal,
		k.NetPnLTotal,
		nullable(k.AvgWin),
		nullable(k.AvgLoss),
		nullable(k.SharpeRatio),
		k.MaxDrawdown,
		nullable(k.MaxDrawdownPct),
		k.CapitalUsed,
		nullable(k.ReturnOnCapital),
		nullableDate(k.DateStart),
		nullableDate(k.DateEnd),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", run.ID, err)
	}

	if len(run.Trades) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO run_trades
				(run_id, seq, ticker, trade_date, strike_price, expected_value, direction,
				 indicator, in_the_money, entry_cost, outcome, gross_pnl, fees, net_pnl)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("storage.SaveRun: prepare: %w", err)
		}
		defer stmt.Close()

		for i, t := range run.Trades {
			if _, err := stmt.ExecContext(ctx,
				run.ID,
				i,
				t.Ticker,
				t.Date.Format(dateLayout),
				t.StrikePrice,
				t.ExpectedValue,
				t.Direction.String(),
				nullable(t.IndicatorValue),
				t.InTheMoney,
				t.EntryCost,
				string(t.Outcome),
				t.GrossPnL,
				t.Fees,
				t.NetPnL,
			); err != nil {
				return fmt.Errorf("storage.SaveRun: insert trade %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// ListRuns devuelve las últimas `limit` ejecuciones, más recientes primero.
// limit <= 0 devuelve todas.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = -1 // sin límite en SQLite
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, pricing, trade_count, win_rate, net_pnl,
		       sharpe_ratio, max_drawdown, capital_used
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		var r domain.RunRecord
		var createdAt string
		var sharpe sql.NullFloat64
		if err := rows.Scan(
			&r.ID,
			&createdAt,
			&r.Pricing,
			&r.TradeCount,
			&r.WinRate,
			&r.NetPnL,
			&sharpe,
			&r.MaxDrawdown,
			&r.CapitalUsed,
		); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan row: %w", err)
		}
		r.CreatedAt, err = time.Parse(timestampLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("storage.ListRuns: run %s: created_at: %w", r.ID, err)
		}
		r.SharpeRatio = metric(sharpe)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRunTrades devuelve el ledger de la ejecución en el orden en que se simuló.
// Un runID desconocido devuelve una lista vacía.
func (s *SQLiteStorage) GetRunTrades(ctx context.Context, runID string) ([]domain.SimulatedTrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, trade_date, strike_price, expected_value, direction,
		       indicator, in_the_money, entry_cost, outcome, gross_pnl, fees, net_pnl
		FROM run_trades
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetRunTrades: query: %w", err)
	}
	defer rows.Close()

	var out []domain.SimulatedTrade
	for rows.Next() {
		var t domain.SimulatedTrade
		var date, dir, outcome string
		var indicator sql.NullFloat64
		if err := rows.Scan(
			&t.Ticker,
			&date,
			&t.StrikePrice,
			&t.ExpectedValue,
			&dir,
			&indicator,
			&t.InTheMoney,
			&t.EntryCost,
			&outcome,
			&t.GrossPnL,
			&t.Fees,
			&t.NetPnL,
		); err != nil {
			return nil, fmt.Errorf("storage.GetRunTrades: scan row: %w", err)
		}
		t.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("storage.GetRunTrades: trade date %q: %w", date, err)
		}
		t.Direction = domain.ParseDirection(dir)
		t.IndicatorValue = metric(indicator)
		t.Outcome = domain.Outcome(outcome)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func nullable(m domain.Metric) sql.NullFloat64 {
	return sql.NullFloat64{Float64: m.Value, Valid: m.Valid}
}

func metric(n sql.NullFloat64) domain.Metric {
	if !n.Valid {
		return domain.Undefined()
	}
	return domain.Defined(n.Float64)
}

func nullableDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

// pricingLabel resume el modelo de precios: "tiered/3tier", "tiered/custom", "probability".
func pricingLabel(params map[string]any) string {
	model, _ := params["pricing_model"].(string)
	if model == "" {
		return "unknown"
	}
	if preset, ok := params["pricing_preset"].(string); ok && preset != "" {
		return model + "/" + preset
	}
	if _, ok := params["pricing_bands"]; ok {
		return model + "/custom"
	}
	return model
}
