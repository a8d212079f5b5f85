package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/invorya/stock-ledger/internal/domain/entity"
	"github.com/invorya/stock-ledger/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL
// (usable con pool o tx). La tripleta (product_id, warehouse_id, lot_id) tiene
// índice único con COALESCE(lot_id, '') para lotes nulos.
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

const stockRecordColumns = `id, product_id, warehouse_id, lot_id, quantity, available, reserved, expiration_date, last_updated_at`

// GetByTriple obtiene el registro de la tripleta, o nil si no existe.
func (r *StockRecordRepo) GetByTriple(ctx context.Context, productID, warehouseID string, lotID *string) (*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records
		WHERE product_id = $1 AND warehouse_id = $2 AND lot_id IS NOT DISTINCT FROM $3`
	rec, err := scanStockRecord(r.q.QueryRow(ctx, query, productID, warehouseID, lotID))
	if err != nil {
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return rec, nil
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE).
// Es el punto de serialización por tripleta de todo el ledger.
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, productID, warehouseID string, lotID *string) (*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records
		WHERE product_id = $1 AND warehouse_id = $2 AND lot_id IS NOT DISTINCT FROM $3
		FOR UPDATE`
	rec, err := scanStockRecord(r.q.QueryRow(ctx, query, productID, warehouseID, lotID))
	if err != nil {
		return nil, fmt.Errorf("get stock record for update: %w", err)
	}
	return rec, nil
}

// Create inserta el registro si la tripleta no existe (ON CONFLICT DO NOTHING):
// dos transacciones concurrentes sobre una tripleta nueva convergen en la misma fila.
func (r *StockRecordRepo) Create(ctx context.Context, record *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (id, product_id, warehouse_id, lot_id, quantity, available, reserved, expiration_date, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (product_id, warehouse_id, COALESCE(lot_id, '')) DO NOTHING`
	_, err := r.q.Exec(ctx, query,
		record.ID, record.ProductID, record.WarehouseID, record.LotID,
		record.Quantity, record.Available, record.Reserved,
		record.ExpirationDate, record.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock record: %w", err)
	}
	return nil
}

// Save persiste las cantidades del registro (la fila ya está bloqueada por el caller).
func (r *StockRecordRepo) Save(ctx context.Context, record *entity.StockRecord) error {
	query := `
		UPDATE stock_records
		SET quantity = $2, available = $3, reserved = $4, expiration_date = $5, last_updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		record.ID, record.Quantity, record.Available, record.Reserved,
		record.ExpirationDate, record.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save stock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save stock record %s: fila inexistente", record.ID)
	}
	return nil
}

// ListByProductWarehouse devuelve todos los lotes de un producto en una bodega.
func (r *StockRecordRepo) ListByProductWarehouse(ctx context.Context, productID, warehouseID string) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records
		WHERE product_id = $1 AND warehouse_id = $2
		ORDER BY lot_id NULLS FIRST`
	rows, err := r.q.Query(ctx, query, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		var rec entity.StockRecord
		if err := rows.Scan(&rec.ID, &rec.ProductID, &rec.WarehouseID, &rec.LotID,
			&rec.Quantity, &rec.Available, &rec.Reserved,
			&rec.ExpirationDate, &rec.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}

func scanStockRecord(row pgx.Row) (*entity.StockRecord, error) {
	var rec entity.StockRecord
	err := row.Scan(&rec.ID, &rec.ProductID, &rec.WarehouseID, &rec.LotID,
		&rec.Quantity, &rec.Available, &rec.Reserved,
		&rec.ExpirationDate, &rec.LastUpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
