package repository

import (
	"context"
	"time"

	"github.com/invorya/stock-ledger/internal/domain/entity"
)

// MovementRepository define el puerto del log de movimientos. Solo inserta y lee:
// las entradas son inmutables, una corrección es siempre una entrada nueva.
type MovementRepository interface {
	Create(ctx context.Context, entry *entity.MovementEntry) error
	// ListByStockRecord devuelve el historial de un registro ordenado por occurred_at ascendente.
	ListByStockRecord(ctx context.Context, stockRecordID string, limit, offset int) ([]*entity.MovementEntry, error)
	// ListByProductWarehouse devuelve el historial de producto+bodega (todos los lotes)
	// en un rango de fechas, ordenado por occurred_at ascendente.
	ListByProductWarehouse(ctx context.Context, productID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.MovementEntry, error)
}
