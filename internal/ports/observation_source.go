package ports

import (
	"context"

	"github.com/alejandrodnm/nadexbt/internal/domain"
)

// ObservationSource carga el histórico de liquidaciones.
type ObservationSource interface {
	// Load devuelve todas las observaciones disponibles. Las filas con
	// strike/expected inválidos se devuelven igualmente (como NaN) para que
	// el simulador las contabilice.
	Load(ctx context.Context) ([]domain.ContractObservation, error)
}
