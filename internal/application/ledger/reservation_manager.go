package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/invorya/stock-ledger/internal/domain"
	"github.com/invorya/stock-ledger/internal/domain/entity"
	"github.com/invorya/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ReservationUseCase gestiona las retenciones temporales de stock: crear, consumir,
// liberar y modificar reservas contra el available de un StockRecord.
//
// Orden fijo de locks para evitar deadlocks: primero la fila del StockRecord
// (tripleta), después la fila de la reserva. Ver release() y Consume().
type ReservationUseCase struct {
	txRunner          TxRunner
	stockReader       repository.StockRecordRepository
	reservationReader repository.ReservationRepository
}

// NewReservationUseCase construye el caso de uso. stockReader y reservationReader
// son repositorios atados al pool, para lecturas fuera de transacción.
func NewReservationUseCase(
	txRunner TxRunner,
	stockReader repository.StockRecordRepository,
	reservationReader repository.ReservationRepository,
) *ReservationUseCase {
	return &ReservationUseCase{
		txRunner:          txRunner,
		stockReader:       stockReader,
		reservationReader: reservationReader,
	}
}

// ReserveInput entrada para Reserve.
type ReserveInput struct {
	ProductID     string
	WarehouseID   string
	LotID         *string
	Quantity      decimal.Decimal
	Kind          string // SALE, ORDER, TRANSFER o MANUAL
	ActorID       string
	ExpiresAt     *time.Time
	Reason        string
	Notes         string
	ReferenceType string
	ReferenceID   string
}

// Reserve retiene Quantity unidades del available de la tripleta y crea la reserva
// en estado ACTIVE. La verificación de disponibilidad y el shift available->reserved
// corren bajo el lock de la fila: dos Reserve concurrentes sobre la misma tripleta
// nunca exceden el available entre ambas.
// Una tripleta sin registro equivale a available 0: ErrInsufficientStock.
func (uc *ReservationUseCase) Reserve(ctx context.Context, in ReserveInput) (*entity.Reservation, error) {
	if in.ProductID == "" || in.WarehouseID == "" || !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if !entity.ValidReservationKind(in.Kind) {
		return nil, domain.ErrInvalidInput
	}

	var out *entity.Reservation
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRecordRepository,
		_ repository.MovementRepository,
		resRepo repository.ReservationRepository,
	) error {
		now := time.Now()
		rec, err := stockRepo.GetForUpdate(ctx, in.ProductID, in.WarehouseID, in.LotID)
		if err != nil {
			return err
		}
		if rec == nil || in.Quantity.GreaterThan(rec.Available) {
			return domain.ErrInsufficientStock
		}
		if err := rec.ShiftAvailableToReserved(in.Quantity, now); err != nil {
			return err
		}
		if err := stockRepo.Save(ctx, rec); err != nil {
			return err
		}
		res := &entity.Reservation{
			ID:               uuid.New().String(),
			StockRecordID:    rec.ID,
			ProductID:        in.ProductID,
			WarehouseID:      in.WarehouseID,
			LotID:            in.LotID,
			ReservedQuantity: in.Quantity,
			ConsumedQuantity: decimal.Zero,
			State:            entity.ReservationStateACTIVE,
			Kind:             in.Kind,
			ExpiresAt:        in.ExpiresAt,
			CreatedBy:        in.ActorID,
			ReferenceType:    in.ReferenceType,
			ReferenceID:      in.ReferenceID,
			Reason:           in.Reason,
			Notes:            in.Notes,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := resRepo.Create(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Consume convierte amount unidades retenidas en una baja física: quantity y
// reserved bajan juntos, se escribe el movimiento RESERVATION_CONSUMPTION y la
// reserva pasa a PARTIALLY_CONSUMED o CONSUMED.
func (uc *ReservationUseCase) Consume(ctx context.Context, reservationID string, amount decimal.Decimal, actorID, notes string) (*entity.Reservation, error) {
	if reservationID == "" || !amount.IsPositive() {
		return nil, domain.ErrInvalidInput
	}

	var out *entity.Reservation
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		resRepo repository.ReservationRepository,
	) error {
		now := time.Now()
		rec, res, err := lockTripleThenReservation(ctx, stockRepo, resRepo, reservationID)
		if err != nil {
			return err
		}
		if res.IsTerminal() {
			return domain.ErrInvalidState
		}
		if amount.GreaterThan(res.Remaining()) {
			return domain.ErrExceedsRemaining
		}
		before := rec.Quantity
		if err := rec.ConsumeReserved(amount, now); err != nil {
			return err
		}
		if err := stockRepo.Save(ctx, rec); err != nil {
			return err
		}
		if err := writeMovement(ctx, movRepo, rec, amount.Neg(), before, rec.Quantity,
			entity.MovementTypeCONSUMPTION, "RESERVATION", res.ID, actorID, notes, now); err != nil {
			return err
		}
		if err := res.ApplyConsume(amount, now); err != nil {
			return err
		}
		if notes != "" {
			res.Notes = notes
		}
		if err := resRepo.Save(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Release libera el remanente de la reserva de vuelta al available y la marca
// RELEASED. Error ErrInvalidState si ya es terminal; el StockRecord no se toca.
func (uc *ReservationUseCase) Release(ctx context.Context, reservationID, actorID, reason string) (*entity.Reservation, error) {
	return uc.release(ctx, reservationID, actorID, reason, false)
}

// Expire libera una reserva vencida marcándola EXPIRED en lugar de RELEASED,
// para que la auditoría distinga liberación manual de timeout. Solo el sweeper.
func (uc *ReservationUseCase) Expire(ctx context.Context, reservationID string) (*entity.Reservation, error) {
	return uc.release(ctx, reservationID, "sweeper", "expired", true)
}

func (uc *ReservationUseCase) release(ctx context.Context, reservationID, actorID, reason string, expired bool) (*entity.Reservation, error) {
	if reservationID == "" {
		return nil, domain.ErrInvalidInput
	}

	var out *entity.Reservation
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRecordRepository,
		_ repository.MovementRepository,
		resRepo repository.ReservationRepository,
	) error {
		now := time.Now()
		rec, res, err := lockTripleThenReservation(ctx, stockRepo, resRepo, reservationID)
		if err != nil {
			return err
		}
		remaining := res.Remaining()
		if err := res.ApplyRelease(actorID, reason, expired, now); err != nil {
			return err
		}
		if remaining.IsPositive() {
			if err := rec.ShiftReservedToAvailable(remaining, now); err != nil {
				return err
			}
			if err := stockRepo.Save(ctx, rec); err != nil {
				return err
			}
		}
		if err := resRepo.Save(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInput entrada para Update. Campos nil = sin cambio.
type UpdateInput struct {
	NewQuantity  *decimal.Decimal
	NewExpiresAt *time.Time
	ClearExpiry  bool
	ActorID      string
}

// Update modifica la cantidad reservada y/o el vencimiento de una reserva no
// terminal. Crecer verifica disponibilidad igual que Reserve (ErrInsufficientStock
// si no alcanza); encoger devuelve la diferencia al available. NewQuantity debe
// ser >= ConsumedQuantity; si queda exactamente en el consumido, la reserva pasa
// a CONSUMED.
func (uc *ReservationUseCase) Update(ctx context.Context, reservationID string, in UpdateInput) (*entity.Reservation, error) {
	if reservationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.NewQuantity == nil && in.NewExpiresAt == nil && !in.ClearExpiry {
		return nil, domain.ErrInvalidInput
	}

	var out *entity.Reservation
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRecordRepository,
		_ repository.MovementRepository,
		resRepo repository.ReservationRepository,
	) error {
		now := time.Now()
		rec, res, err := lockTripleThenReservation(ctx, stockRepo, resRepo, reservationID)
		if err != nil {
			return err
		}
		if res.IsTerminal() {
			return domain.ErrInvalidState
		}
		if in.NewQuantity != nil {
			newQty := *in.NewQuantity
			if !newQty.IsPositive() || newQty.LessThan(res.ConsumedQuantity) {
				return domain.ErrInvalidInput
			}
			delta := newQty.Sub(res.ReservedQuantity)
			switch {
			case delta.IsPositive():
				if err := rec.ShiftAvailableToReserved(delta, now); err != nil {
					if errors.Is(err, domain.ErrInsufficientAvailable) {
						return domain.ErrInsufficientStock
					}
					return err
				}
			case delta.IsNegative():
				if err := rec.ShiftReservedToAvailable(delta.Neg(), now); err != nil {
					return err
				}
			}
			if !delta.IsZero() {
				if err := stockRepo.Save(ctx, rec); err != nil {
					return err
				}
			}
			if err := res.ApplyQuantityChange(newQty, now); err != nil {
				return err
			}
		}
		switch {
		case in.ClearExpiry:
			res.ExpiresAt = nil
		case in.NewExpiresAt != nil:
			res.ExpiresAt = in.NewExpiresAt
		}
		res.UpdatedAt = now
		if err := resRepo.Save(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AvailableFor devuelve el available actual de producto+bodega (suma de lotes).
// Lee StockRecord.Available directamente: ya descuenta todas las reservas activas
// por construcción, sin reagregación por llamada.
func (uc *ReservationUseCase) AvailableFor(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	if productID == "" || warehouseID == "" {
		return decimal.Zero, domain.ErrInvalidInput
	}
	records, err := uc.stockReader.ListByProductWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.Available)
	}
	return total, nil
}

// GetByID devuelve la reserva o ErrNotFound.
func (uc *ReservationUseCase) GetByID(ctx context.Context, reservationID string) (*entity.Reservation, error) {
	res, err := uc.reservationReader.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

// lockTripleThenReservation aplica el orden fijo de locks: lee la reserva sin lock
// para conocer su tripleta, bloquea la fila del StockRecord y recién entonces la
// fila de la reserva (relectura autoritativa bajo lock).
func lockTripleThenReservation(ctx context.Context, stockRepo repository.StockRecordRepository, resRepo repository.ReservationRepository, reservationID string) (*entity.StockRecord, *entity.Reservation, error) {
	peek, err := resRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	if peek == nil {
		return nil, nil, domain.ErrNotFound
	}
	rec, err := stockRepo.GetForUpdate(ctx, peek.ProductID, peek.WarehouseID, peek.LotID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		// Existe reserva pero no su registro: inconsistencia del ledger.
		return nil, nil, domain.ErrInvariantViolation
	}
	res, err := resRepo.GetByIDForUpdate(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	if res == nil {
		return nil, nil, domain.ErrNotFound
	}
	return rec, res, nil
}
