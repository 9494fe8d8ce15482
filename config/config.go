package config

import (
	"fmt"
	"os"

	"github.com/alejandrodnm/nadexbt/internal/backtest"
	"github.com/alejandrodnm/nadexbt/internal/domain"
	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del backtester.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Strategy StrategyConfig `yaml:"strategy"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Filters  FilterConfig   `yaml:"filters"`
	Compare  CompareConfig  `yaml:"compare"`
	Output   OutputConfig   `yaml:"output"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// DataConfig indica dónde está el histórico.
type DataConfig struct {
	Path string `yaml:"path" default:"data/historical"` // fichero CSV o directorio de *.csv
}

// StrategyConfig son los parámetros del RSI y la simulación.
type StrategyConfig struct {
	RSIPeriod      int     `yaml:"rsi_period" default:"14"`
	RSIMethod      string  `yaml:"rsi_method" default:"rolling"` // rolling | wilder
	Oversold       float64 `yaml:"oversold" default:"30"`
	Overbought     float64 `yaml:"overbought" default:"70"`
	TrendPeriod    int     `yaml:"trend_period"` // 0 = sin filtro de tendencia
	FanOut         string  `yaml:"fan_out" default:"all"`
	ShortMode      string  `yaml:"short_mode" default:"buy"` // buy | sell
	FeePerContract float64 `yaml:"fee_per_contract" default:"1.00"`
	PeriodsPerYear float64 `yaml:"periods_per_year" default:"252"`
	Workers        int     `yaml:"workers"` // 0 = NumCPU
}

// PricingConfig selecciona el modelo de precios.
type PricingConfig struct {
	Model      string             `yaml:"model" default:"tiered"` // tiered | probability
	Preset     string             `yaml:"preset" default:"3tier"` // 3tier | 7tier
	Bands      []domain.PriceBand `yaml:"bands"`                  // tramos propios; prioridad sobre preset
	Volatility float64            `yaml:"volatility" default:"0.01"`
	MinPrice   float64            `yaml:"min_price"`
	MaxPayout  float64            `yaml:"max_payout" default:"10"`
}

// FilterConfig contiene los filtros opcionales.
type FilterConfig struct {
	MaxStrikeDistance *float64 `yaml:"max_strike_distance"` // fracción: 0.02 = ±2%
	ExcludedTickers   []string `yaml:"excluded_tickers"`
}

// CompareConfig define la parrilla de variantes de -compare.
// Vacía usa backtest.DefaultVariants.
type CompareConfig struct {
	Variants []backtest.Variant `yaml:"variants"`
}

// OutputConfig controla el export de resultados.
type OutputConfig struct {
	Dir          string `yaml:"dir"` // vacío = sin export a ficheros
	SampleTrades int    `yaml:"sample_trades" default:"10"`
}

// StorageConfig controla dónde se persisten las ejecuciones.
type StorageConfig struct {
	DSN string `yaml:"dsn" default:"nadexbt.db"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level" default:"info"`  // debug | info | warn | error
	Format string `yaml:"format" default:"text"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Con path vacío solo se aplican defaults y variables de entorno.
//
// Los defaults se aplican antes de leer el YAML: un valor explícito, incluido
// el cero, nunca se sustituye y llega tal cual a la validación.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: defaults: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}
	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// Backtest traduce la configuración a los parámetros del motor.
// La validación se hace en backtest.Config.Validate.
func (c *Config) Backtest() backtest.Config {
	s := c.Strategy
	return backtest.Config{
		RSIPeriod:   s.RSIPeriod,
		RSIMethod:   domain.RSIMethod(s.RSIMethod),
		Oversold:    s.Oversold,
		Overbought:  s.Overbought,
		TrendPeriod: s.TrendPeriod,
		Pricing: backtest.PricingConfig{
			Model:      c.Pricing.Model,
			Preset:     c.Pricing.Preset,
			Bands:      c.Pricing.Bands,
			Volatility: c.Pricing.Volatility,
			MinPrice:   c.Pricing.MinPrice,
			MaxPayout:  c.Pricing.MaxPayout,
		},
		Filter: backtest.FilterConfig{
			MaxStrikeDistance: c.Filters.MaxStrikeDistance,
			ExcludedTickers:   c.Filters.ExcludedTickers,
		},
		FanOut:         backtest.FanOutMode(s.FanOut),
		ShortMode:      domain.ShortMode(s.ShortMode),
		FeePerContract: s.FeePerContract,
		PeriodsPerYear: s.PeriodsPerYear,
		Workers:        s.Workers,
	}
}

// Variants devuelve la parrilla de comparación configurada o la habitual.
func (c *Config) Variants() []backtest.Variant {
	if len(c.Compare.Variants) > 0 {
		return c.Compare.Variants
	}
	return backtest.DefaultVariants()
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("NADEX_DATA_PATH"); v != "" {
		cfg.Data.Path = v
	}
	if v := os.Getenv("NADEX_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("NADEX_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
}
