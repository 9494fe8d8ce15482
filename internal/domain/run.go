package domain

import "time"

// Exclusions cuenta las observaciones descartadas antes o durante la simulación.
type Exclusions struct {
	DataQuality    int `json:"data_quality"`    // strike/expected ausente o no numérico
	ExcludedTicker int `json:"excluded_ticker"` // ticker en la lista de exclusión
	StrikeDistance int `json:"strike_distance"` // fuera de la ventana ±X%
	NotATM         int `json:"not_atm"`         // fan-out atm: strikes no elegidos
	NoSignal       int `json:"no_signal"`       // ticker-día sin señal
}

// BacktestRun es el resultado completo de una ejecución, listo para persistir o exportar.
type BacktestRun struct {
	ID           string
	CreatedAt    time.Time
	Params       map[string]any
	Observations int
	Signals      int
	Excluded     Exclusions
	Trades       []SimulatedTrade
	Summary      KPISummary
}

// RunRecord es la fila resumen de una ejecución guardada.
type RunRecord struct {
	ID          string
	CreatedAt   time.Time
	Pricing     string
	TradeCount  int
	WinRate     float64
	NetPnL      float64
	SharpeRatio Metric
	MaxDrawdown float64
	CapitalUsed float64
}
