package ledger

import (
	"context"
	"time"

	"github.com/invorya/stock-ledger/internal/domain"
	"github.com/invorya/stock-ledger/internal/domain/entity"
	"github.com/invorya/stock-ledger/internal/domain/repository"
	"github.com/invorya/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// InitialLoadRow una fila del lote de carga inicial.
type InitialLoadRow struct {
	ProductID   string
	WarehouseID string
	LotID       *string
	Quantity    decimal.Decimal
	Expiration  *time.Time
}

// RowResult resultado por fila del lote.
type RowResult struct {
	Index       int
	ProductID   string
	WarehouseID string
	LotID       *string
	OK          bool
	Warning     string // carga repetida sobre tripleta ya cargada (aditiva)
	Error       string
}

// BatchReport reporte del lote completo.
type BatchReport struct {
	Total     int
	Succeeded int
	Failed    int
	Warnings  int
	Rows      []RowResult
}

// InitialLoadUseCase procesa cargas iniciales / ajustes masivos de stock.
// Cada fila corre en su propia transacción: el fallo de una fila se captura en el
// reporte y no aborta el lote. Recargar una tripleta ya cargada es válido pero se
// marca con warning: la carga es aditiva, no idempotente; deduplicar es
// responsabilidad del caller.
type InitialLoadUseCase struct {
	txRunner TxRunner
	log      *logger.Logger
}

// NewInitialLoadUseCase construye el caso de uso.
func NewInitialLoadUseCase(txRunner TxRunner, log *logger.Logger) *InitialLoadUseCase {
	return &InitialLoadUseCase{txRunner: txRunner, log: log}
}

// Load procesa el lote fila a fila y devuelve el reporte por fila.
func (uc *InitialLoadUseCase) Load(ctx context.Context, rows []InitialLoadRow, actorID string) *BatchReport {
	report := &BatchReport{Total: len(rows), Rows: make([]RowResult, 0, len(rows))}
	for i, row := range rows {
		result := RowResult{
			Index:       i,
			ProductID:   row.ProductID,
			WarehouseID: row.WarehouseID,
			LotID:       row.LotID,
		}
		if err := uc.loadRow(ctx, row, actorID, &result); err != nil {
			result.Error = err.Error()
			report.Failed++
			uc.log.Warn().Err(err).
				Int("row", i).
				Str("product_id", row.ProductID).
				Str("warehouse_id", row.WarehouseID).
				Msg("fila de carga inicial fallida")
		} else {
			result.OK = true
			report.Succeeded++
			if result.Warning != "" {
				report.Warnings++
			}
		}
		report.Rows = append(report.Rows, result)
	}
	return report
}

func (uc *InitialLoadUseCase) loadRow(ctx context.Context, row InitialLoadRow, actorID string, result *RowResult) error {
	if row.ProductID == "" || row.WarehouseID == "" || !row.Quantity.IsPositive() {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		_ repository.ReservationRepository,
	) error {
		now := time.Now()
		rec, created, err := getOrCreateForUpdate(ctx, stockRepo, row.ProductID, row.WarehouseID, row.LotID, row.Expiration, now)
		if err != nil {
			return err
		}
		if !created && rec.Quantity.IsPositive() {
			result.Warning = "tripleta ya cargada: la carga inicial es aditiva"
		}
		before := rec.Quantity
		if err := rec.ApplyDelta(row.Quantity, now); err != nil {
			return err
		}
		if err := stockRepo.Save(ctx, rec); err != nil {
			return err
		}
		return writeMovement(ctx, movRepo, rec, row.Quantity, before, rec.Quantity,
			entity.MovementTypeINITIALLOAD, "", "", actorID, "carga inicial", now)
	})
}
