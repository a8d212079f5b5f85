package ledger

import (
	"context"
	"time"

	"github.com/invorya/stock-ledger/internal/domain"
	"github.com/invorya/stock-ledger/internal/domain/entity"
	"github.com/invorya/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// StockOverview vista agregada de producto+bodega: totales del triple, desglose
// por lote y las reservas no terminales que retienen stock.
type StockOverview struct {
	ProductID    string
	WarehouseID  string
	Quantity     decimal.Decimal
	Available    decimal.Decimal
	Reserved     decimal.Decimal
	Lots         []*entity.StockRecord
	Reservations []*entity.Reservation
}

// StockQueryUseCase lecturas del ledger para la capa de reportes y los callers de
// negocio. Solo lee repositorios atados al pool; nunca muta.
type StockQueryUseCase struct {
	stockReader       repository.StockRecordRepository
	reservationReader repository.ReservationRepository
	movementReader    repository.MovementRepository
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(
	stockReader repository.StockRecordRepository,
	reservationReader repository.ReservationRepository,
	movementReader repository.MovementRepository,
) *StockQueryUseCase {
	return &StockQueryUseCase{
		stockReader:       stockReader,
		reservationReader: reservationReader,
		movementReader:    movementReader,
	}
}

// Overview devuelve cantidades física/disponible/reservada por producto+bodega
// junto con las reservas vivas. ErrNotFound si la tripleta nunca tuvo stock.
func (uc *StockQueryUseCase) Overview(ctx context.Context, productID, warehouseID string) (*StockOverview, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	records, err := uc.stockReader.ListByProductWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}
	out := &StockOverview{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    decimal.Zero,
		Available:   decimal.Zero,
		Reserved:    decimal.Zero,
		Lots:        records,
	}
	for _, rec := range records {
		out.Quantity = out.Quantity.Add(rec.Quantity)
		out.Available = out.Available.Add(rec.Available)
		out.Reserved = out.Reserved.Add(rec.Reserved)
	}
	reservations, err := uc.reservationReader.ListActiveByProductWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	out.Reservations = reservations
	return out, nil
}

// Movements devuelve el historial de movimientos de producto+bodega ordenado por
// occurred_at, para consumo de auditoría/reportes.
func (uc *StockQueryUseCase) Movements(ctx context.Context, productID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.MovementEntry, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.movementReader.ListByProductWarehouse(ctx, productID, warehouseID, from, to, limit, offset)
}
