package ledger

import (
	"context"

	"github.com/invorya/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Es la unidad atómica del ledger: junto con el lock de fila del
// StockRecord garantiza que las mutaciones de una misma tripleta se serializan y
// que el invariante se valida dentro de la misma unidad de trabajo que mutó.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		resRepo repository.ReservationRepository,
	) error) error
}
