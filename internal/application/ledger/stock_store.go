package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invorya/stock-ledger/internal/domain"
	"github.com/invorya/stock-ledger/internal/domain/docnum"
	"github.com/invorya/stock-ledger/internal/domain/entity"
	"github.com/invorya/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// StockStoreUseCase expone las operaciones directas sobre el ledger de stock:
// creación de registros y entradas/ajustes físicos no mediados por reservas.
// Toda mutación corre en una transacción con la fila de la tripleta bloqueada
// (SELECT FOR UPDATE) y deja exactamente una entrada en el log de movimientos.
type StockStoreUseCase struct {
	txRunner TxRunner
}

// NewStockStoreUseCase construye el caso de uso.
func NewStockStoreUseCase(txRunner TxRunner) *StockStoreUseCase {
	return &StockStoreUseCase{txRunner: txRunner}
}

// PhysicalDeltaInput entrada para ApplyPhysicalDelta.
type PhysicalDeltaInput struct {
	ProductID     string
	WarehouseID   string
	LotID         *string
	Delta         decimal.Decimal
	MovementType  string // INITIAL_LOAD, IN o ADJUSTMENT
	ReferenceType string
	ReferenceID   string
	ActorID       string
	Note          string
	Expiration    *time.Time // fecha de vencimiento del lote, solo al crear
}

// GetOrCreate devuelve el registro de la tripleta, creándolo en cero si no existe.
func (uc *StockStoreUseCase) GetOrCreate(ctx context.Context, productID, warehouseID string, lotID *string, expiration *time.Time) (*entity.StockRecord, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.StockRecord
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRecordRepository,
		_ repository.MovementRepository,
		_ repository.ReservationRepository,
	) error {
		rec, _, err := getOrCreateForUpdate(ctx, stockRepo, productID, warehouseID, lotID, expiration, time.Now())
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}

// ApplyPhysicalDelta suma Delta a quantity y available (recepción física o ajuste
// directo, sin pasar por reservas), escribe la entrada de movimiento y revalida el
// invariante. Falla con ErrInvariantViolation si dejaría available o reserved en negativo.
func (uc *StockStoreUseCase) ApplyPhysicalDelta(ctx context.Context, in PhysicalDeltaInput) (*entity.StockRecord, error) {
	if in.ProductID == "" || in.WarehouseID == "" || in.Delta.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	switch in.MovementType {
	case entity.MovementTypeINITIALLOAD, entity.MovementTypeIN, entity.MovementTypeADJUSTMENT:
	default:
		// El consumo de reservas solo entra por el gestor de reservas.
		return nil, domain.ErrInvalidInput
	}

	var out *entity.StockRecord
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		_ repository.ReservationRepository,
	) error {
		now := time.Now()
		rec, _, err := getOrCreateForUpdate(ctx, stockRepo, in.ProductID, in.WarehouseID, in.LotID, in.Expiration, now)
		if err != nil {
			return err
		}
		before := rec.Quantity
		if err := rec.ApplyDelta(in.Delta, now); err != nil {
			return err
		}
		if err := stockRepo.Save(ctx, rec); err != nil {
			return err
		}
		out = rec
		return writeMovement(ctx, movRepo, rec, in.Delta, before, rec.Quantity,
			in.MovementType, in.ReferenceType, in.ReferenceID, in.ActorID, in.Note, now)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// getOrCreateForUpdate bloquea la fila de la tripleta, creándola en cero si no
// existe. Create usa ON CONFLICT DO NOTHING, así dos transacciones concurrentes
// sobre una tripleta nueva convergen en la misma fila y una espera a la otra.
// Devuelve created=false si la fila ya existía.
func getOrCreateForUpdate(ctx context.Context, stockRepo repository.StockRecordRepository, productID, warehouseID string, lotID *string, expiration *time.Time, now time.Time) (*entity.StockRecord, bool, error) {
	rec, err := stockRepo.GetForUpdate(ctx, productID, warehouseID, lotID)
	if err != nil {
		return nil, false, err
	}
	if rec != nil {
		return rec, false, nil
	}
	fresh := entity.NewStockRecord(productID, warehouseID, lotID, expiration, now)
	fresh.ID = uuid.New().String()
	if err := stockRepo.Create(ctx, fresh); err != nil {
		return nil, false, err
	}
	rec, err = stockRepo.GetForUpdate(ctx, productID, warehouseID, lotID)
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		return nil, false, domain.ErrNotFound
	}
	return rec, true, nil
}

// writeMovement inserta la entrada inmutable del log con snapshot antes/después.
func writeMovement(ctx context.Context, movRepo repository.MovementRepository, rec *entity.StockRecord, delta, before, after decimal.Decimal, movementType, refType, refID, actorID, note string, now time.Time) error {
	id := uuid.New().String()
	return movRepo.Create(ctx, &entity.MovementEntry{
		ID:             id,
		StockRecordID:  rec.ID,
		ProductID:      rec.ProductID,
		WarehouseID:    rec.WarehouseID,
		LotID:          rec.LotID,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		Type:           movementType,
		DocumentNumber: docnum.For(movementType, now, id),
		ReferenceType:  refType,
		ReferenceID:    refID,
		OccurredAt:     now,
		ActorID:        actorID,
		Note:           note,
	})
}
