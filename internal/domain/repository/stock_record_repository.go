package repository

import (
	"context"

	"github.com/invorya/stock-ledger/internal/domain/entity"
)

// StockRecordRepository define el puerto de persistencia del ledger de stock por
// (producto, bodega, lote). Las mutaciones siempre corren dentro de una transacción.
type StockRecordRepository interface {
	// GetByTriple devuelve el registro de la tripleta o nil si no existe.
	GetByTriple(ctx context.Context, productID, warehouseID string, lotID *string) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila de la tripleta (SELECT FOR UPDATE). Es la única
	// granularidad de lock del sistema: tripletas distintas no se bloquean entre sí.
	GetForUpdate(ctx context.Context, productID, warehouseID string, lotID *string) (*entity.StockRecord, error)
	Create(ctx context.Context, record *entity.StockRecord) error
	Save(ctx context.Context, record *entity.StockRecord) error
	// ListByProductWarehouse devuelve todos los lotes de un producto en una bodega.
	ListByProductWarehouse(ctx context.Context, productID, warehouseID string) ([]*entity.StockRecord, error)
}
