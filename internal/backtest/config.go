package backtest

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/alejandrodnm/nadexbt/internal/domain"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig envuelve cualquier error de configuración. Se devuelve
// antes de tocar los datos: un backtest mal configurado no arranca.
var ErrInvalidConfig = errors.New("invalid strategy config")

var validate = validator.New()

// FanOutMode decide a qué strikes se aplica la señal diaria.
type FanOutMode string

const (
	// FanOutAll aplica la señal a todos los strikes del ticker-día (por defecto).
	FanOutAll FanOutMode = "all"
	// FanOutATM solo opera el strike más cercano al expected value.
	FanOutATM FanOutMode = "atm"
)

// Config son los parámetros de una ejecución. Se trata como inmutable.
type Config struct {
	RSIPeriod      int              `validate:"gte=1"`
	RSIMethod      domain.RSIMethod `validate:"oneof=rolling wilder"`
	Oversold       float64          `validate:"gte=0,lte=100"`
	Overbought     float64          `validate:"gtfield=Oversold,lte=100"`
	TrendPeriod    int              `validate:"gte=0"` // 0 = sin filtro de tendencia
	Pricing        PricingConfig
	Filter         FilterConfig
	FanOut         FanOutMode       `validate:"oneof=all atm"`
	ShortMode      domain.ShortMode `validate:"oneof=buy sell"`
	FeePerContract float64          `validate:"gte=0"`
	PeriodsPerYear float64          `validate:"gt=0"`
	Workers        int              `validate:"gte=0"` // 0 = runtime.NumCPU()
}

// PricingConfig selecciona el modelo de precios y sus parámetros.
type PricingConfig struct {
	Model      string             `validate:"oneof=tiered probability"`
	Preset     string             `validate:"omitempty,oneof=3tier 7tier"`
	Bands      []domain.PriceBand // solo tiered; tiene prioridad sobre Preset
	Volatility float64            `validate:"gte=0"`
	MinPrice   float64            `validate:"gte=0"`
	MaxPayout  float64            `validate:"gtfield=MinPrice"`
}

// DefaultConfig devuelve la estrategia base: RSI(14) de medias móviles 30/70, 3 tramos, $1 de fee.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:  14,
		RSIMethod:  domain.RSIRolling,
		Oversold:   30,
		Overbought: 70,
		Pricing: PricingConfig{
			Model:      "tiered",
			Preset:     "3tier",
			Volatility: domain.DefaultVolatility,
			MinPrice:   0,
			MaxPayout:  domain.DefaultMaxPayout,
		},
		FanOut:         FanOutAll,
		ShortMode:      domain.ShortBuy,
		FeePerContract: 1.00,
		PeriodsPerYear: domain.DefaultPeriodsPerYear,
	}
}

// Validate comprueba la configuración completa. Los errores envuelven ErrInvalidConfig.
func (c Config) Validate() error {
	if err := c.checkFinite(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, describe(err))
	}
	if c.Pricing.Model == "tiered" {
		if err := validateBands(c.Pricing.bands()); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
		}
	}
	return nil
}

// NewPricingModel construye el modelo configurado.
func NewPricingModel(cfg PricingConfig) (domain.PricingModel, error) {
	limits := domain.PriceLimits{MinPrice: cfg.MinPrice, MaxPayout: cfg.MaxPayout}
	switch cfg.Model {
	case "tiered":
		bands := cfg.bands()
		if err := validateBands(bands); err != nil {
			return nil, fmt.Errorf("backtest.NewPricingModel: %w", err)
		}
		return domain.NewTieredModel(bands, limits), nil
	case "probability":
		return domain.NewProbabilityModel(cfg.Volatility, limits), nil
	default:
		return nil, fmt.Errorf("backtest.NewPricingModel: unknown model %q", cfg.Model)
	}
}

// Params devuelve los parámetros en forma plana para persistir o exportar.
func (c Config) Params() map[string]any {
	p := map[string]any{
		"rsi_period":       c.RSIPeriod,
		"rsi_method":       string(c.RSIMethod),
		"oversold":         c.Oversold,
		"overbought":       c.Overbought,
		"trend_period":     c.TrendPeriod,
		"pricing_model":    c.Pricing.Model,
		"min_price":        c.Pricing.MinPrice,
		"max_payout":       c.Pricing.MaxPayout,
		"fee_per_contract": c.FeePerContract,
		"fan_out":          string(c.FanOut),
		"short_mode":       string(c.ShortMode),
	}
	switch c.Pricing.Model {
	case "tiered":
		if len(c.Pricing.Bands) > 0 {
			p["pricing_bands"] = c.Pricing.Bands
		} else {
			p["pricing_preset"] = c.Pricing.Preset
		}
	case "probability":
		p["volatility"] = c.Pricing.Volatility
	}
	if c.Filter.MaxStrikeDistance != nil {
		p["max_strike_distance"] = *c.Filter.MaxStrikeDistance
	}
	if len(c.Filter.ExcludedTickers) > 0 {
		p["excluded_tickers"] = c.Filter.ExcludedTickers
	}
	return p
}

// checkFinite rechaza NaN e infinitos, que los tags del validator dejan pasar.
func (c Config) checkFinite() error {
	type field struct {
		name string
		v    float64
	}
	fields := []field{
		{"Oversold", c.Oversold},
		{"Overbought", c.Overbought},
		{"FeePerContract", c.FeePerContract},
		{"PeriodsPerYear", c.PeriodsPerYear},
		{"Pricing.Volatility", c.Pricing.Volatility},
		{"Pricing.MinPrice", c.Pricing.MinPrice},
		{"Pricing.MaxPayout", c.Pricing.MaxPayout},
	}
	if c.Filter.MaxStrikeDistance != nil {
		fields = append(fields, field{"Filter.MaxStrikeDistance", *c.Filter.MaxStrikeDistance})
	}
	for _, f := range fields {
		if !isFinite(f.v) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func (p PricingConfig) bands() []domain.PriceBand {
	if len(p.Bands) > 0 {
		return p.Bands
	}
	switch p.Preset {
	case "7tier":
		return domain.SevenTierBands()
	case "3tier", "":
		return domain.ThreeTierBands()
	}
	return nil
}

// validateBands exige tramos ordenados de más ITM a más OTM.
// El último tramo es el catch-all y su Above no se usa.
func validateBands(bands []domain.PriceBand) error {
	if len(bands) == 0 {
		return errors.New("tiered pricing needs at least one band")
	}
	for i := 1; i < len(bands)-1; i++ {
		if bands[i].Above >= bands[i-1].Above {
			return fmt.Errorf("band %d (%s): above %.4f must be lower than band %d (%.4f)",
				i, bands[i].Label, bands[i].Above, i-1, bands[i-1].Above)
		}
	}
	for i, b := range bands {
		if !isFinite(b.Price) || !isFinite(b.Above) {
			return fmt.Errorf("band %d (%s): above and price must be finite", i, b.Label)
		}
		if b.Price < 0 {
			return fmt.Errorf("band %d (%s): negative price", i, b.Label)
		}
	}
	return nil
}

// describe convierte los errores del validator en un mensaje legible.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "gtfield":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation: %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
