package repository

import (
	"context"
	"time"

	"github.com/invorya/stock-ledger/internal/domain/entity"
)

// ReservationRepository define el puerto de persistencia de reservas.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	// GetByID devuelve la reserva o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Reservation, error)
	// GetByIDForUpdate bloquea la fila de la reserva. Debe llamarse DESPUÉS de
	// bloquear la fila del StockRecord (orden fijo de locks: tripleta primero).
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Reservation, error)
	Save(ctx context.Context, reservation *entity.Reservation) error
	// ListActiveByProductWarehouse lista las reservas no terminales que retienen
	// stock de un producto en una bodega.
	ListActiveByProductWarehouse(ctx context.Context, productID, warehouseID string) ([]*entity.Reservation, error)
	// ListExpired lista reservas ACTIVE/PARTIALLY_CONSUMED con expires_at < now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error)
}
