package historical

// csv.go — carga del histórico de liquidaciones Nadex.
//
// Cada fila es un strike de un ticker en un día. Las columnas se localizan por
// cabecera, así que el orden y las columnas extra dan igual. Los precios no
// numéricos se cargan como NaN y llegan al simulador, que los cuenta como
// exclusiones de calidad de datos; las filas sin ticker, fecha o etiqueta
// legibles no son observaciones y se descartan aquí.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/nadexbt/internal/domain"
	"golang.org/x/time/rate"
)

// Formatos de fecha aceptados: el del export de Nadex y ISO.
var dateLayouts = []string{"02-Jan-06", "2006-01-02", "02-Jan-2006", "1/2/2006"}

// Nombres de columna normalizados (minúsculas, sin espacios ni guiones bajos).
var columnAliases = map[string][]string{
	"ticker":   {"ticker", "symbol"},
	"date":     {"date", "expirationdate", "tradedate"},
	"strike":   {"strikeprice", "strike"},
	"expected": {"expvalue", "expectedvalue", "settlementvalue"},
	"itm":      {"inthemoney", "itm"},
}

// ErrMissingColumn indica que la cabecera no trae una columna obligatoria.
var ErrMissingColumn = errors.New("missing required column")

// LoadStats resume una carga.
type LoadStats struct {
	Files       int
	Rows        int
	Loaded      int
	BadTicker   int
	BadDate     int
	BadFlag     int
	BadNumeric  int // cargadas como NaN
	ShortRecord int
}

// Dropped devuelve el total de filas descartadas en la carga.
func (s LoadStats) Dropped() int {
	return s.BadTicker + s.BadDate + s.BadFlag + s.ShortRecord
}

// CSVSource implementa ports.ObservationSource sobre un fichero CSV o un
// directorio con varios.
type CSVSource struct {
	path  string
	stats LoadStats
	warn  *rate.Sometimes
}

// NewCSVSource crea una fuente sobre path (fichero o directorio de *.csv).
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{
		path: path,
		warn: &rate.Sometimes{First: 5, Interval: 2 * time.Second},
	}
}

// Stats devuelve las estadísticas de la última carga.
func (s *CSVSource) Stats() LoadStats {
	return s.stats
}

// Load lee todos los ficheros y devuelve las observaciones en orden de lectura.
func (s *CSVSource) Load(ctx context.Context) ([]domain.ContractObservation, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}

	s.stats = LoadStats{}
	var out []domain.ContractObservation
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("historical.Load: %w", err)
		}
		obs, err := s.loadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, obs...)
		s.stats.Files++
	}

	if s.stats.Dropped() > 0 || s.stats.BadNumeric > 0 {
		slog.Warn("historical data quality",
			"rows", s.stats.Rows,
			"dropped", s.stats.Dropped(),
			"bad_ticker", s.stats.BadTicker,
			"bad_date", s.stats.BadDate,
			"bad_flag", s.stats.BadFlag,
			"bad_numeric", s.stats.BadNumeric,
		)
	}
	return out, nil
}

func (s *CSVSource) files() ([]string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("historical.Load: stat %q: %w", s.path, err)
	}
	if !info.IsDir() {
		return []string{s.path}, nil
	}

	files, err := filepath.Glob(filepath.Join(s.path, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("historical.Load: glob %q: %w", s.path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("historical.Load: no csv files in %q", s.path)
	}
	sort.Strings(files)
	return files, nil
}

func (s *CSVSource) loadFile(path string) ([]domain.ContractObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("historical.Load: open %q: %w", path, err)
	}
	defer f.Close()

	obs, err := s.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("historical.Load: %s: %w", path, err)
	}
	return obs, nil
}

// Parse lee observaciones de r. name solo se usa en los logs.
func (s *CSVSource) Parse(r io.Reader, name string) ([]domain.ContractObservation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var out []domain.ContractObservation
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		s.stats.Rows++

		o, ok := s.parseRecord(rec, cols, name, line)
		if !ok {
			continue
		}
		out = append(out, o)
		s.stats.Loaded++
	}
	return out, nil
}

func (s *CSVSource) parseRecord(rec []string, cols map[string]int, name string, line int) (domain.ContractObservation, bool) {
	for _, idx := range cols {
		if idx >= len(rec) {
			s.stats.ShortRecord++
			s.warnRow(name, line, "short record")
			return domain.ContractObservation{}, false
		}
	}

	ticker := strings.TrimSpace(rec[cols["ticker"]])
	if ticker == "" {
		s.stats.BadTicker++
		s.warnRow(name, line, "empty ticker")
		return domain.ContractObservation{}, false
	}
	date, err := parseDate(rec[cols["date"]])
	if err != nil {
		s.stats.BadDate++
		s.warnRow(name, line, "bad date", "value", rec[cols["date"]])
		return domain.ContractObservation{}, false
	}
	itm, err := parseFlag(rec[cols["itm"]])
	if err != nil {
		s.stats.BadFlag++
		s.warnRow(name, line, "bad in-the-money flag", "value", rec[cols["itm"]])
		return domain.ContractObservation{}, false
	}

	strike, okStrike := parseNumber(rec[cols["strike"]])
	expected, okExpected := parseNumber(rec[cols["expected"]])
	if !okStrike || !okExpected {
		s.stats.BadNumeric++
	}

	return domain.ContractObservation{
		Ticker:        ticker,
		Date:          date,
		StrikePrice:   strike,
		ExpectedValue: expected,
		InTheMoney:    itm,
	}, true
}

func (s *CSVSource) warnRow(name string, line int, msg string, args ...any) {
	s.warn.Do(func() {
		slog.Warn("historical: skipping row", append([]any{"file", name, "line", line, "reason", msg}, args...)...)
	})
}

// resolveColumns mapea cada columna obligatoria a su índice en la cabecera.
func resolveColumns(header []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[normalize(h)] = i
	}

	cols := make(map[string]int, len(columnAliases))
	var missing []string
	for key, aliases := range columnAliases {
		found := false
		for _, a := range aliases {
			if idx, ok := byName[a]; ok {
				cols[key] = idx
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func normalize(h string) string {
	h = strings.TrimPrefix(h, "\ufeff") // BOM de Excel
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

func parseFlag(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "1.0", "true", "yes", "y", "t":
		return true, nil
	case "0", "0.0", "false", "no", "n", "f":
		return false, nil
	}
	return false, fmt.Errorf("unrecognised flag %q", v)
}

// parseNumber devuelve NaN si el valor no es numérico. Acepta separador de miles.
func parseNumber(v string) (float64, bool) {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return math.NaN(), false
	}
	return f, true
}
