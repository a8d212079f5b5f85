package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/invorya/stock-ledger/internal/domain/entity"
	"github.com/invorya/stock-ledger/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del log de movimientos sobre PostgreSQL (usable con
// pool o tx). Solo inserta y lee: las entradas son inmutables.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, stock_record_id, product_id, warehouse_id, lot_id,
	delta, quantity_before, quantity_after, type, document_number,
	reference_type, reference_id, occurred_at, actor_id, note`

// Create persiste una entrada del log.
func (r *MovementRepo) Create(ctx context.Context, entry *entity.MovementEntry) error {
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		entry.ID, entry.StockRecordID, entry.ProductID, entry.WarehouseID, entry.LotID,
		entry.Delta, entry.QuantityBefore, entry.QuantityAfter, entry.Type, entry.DocumentNumber,
		entry.ReferenceType, entry.ReferenceID, entry.OccurredAt, entry.ActorID, entry.Note,
	)
	if err != nil {
		return fmt.Errorf("create movement entry: %w", err)
	}
	return nil
}

// ListByStockRecord historial de un registro ordenado por occurred_at ascendente.
func (r *MovementRepo) ListByStockRecord(ctx context.Context, stockRecordID string, limit, offset int) ([]*entity.MovementEntry, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE stock_record_id = $1
		ORDER BY occurred_at, id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, stockRecordID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements by stock record: %w", err)
	}
	return collectMovements(rows)
}

// ListByProductWarehouse historial de producto+bodega (todos los lotes) en un
// rango de fechas, ordenado por occurred_at ascendente.
func (r *MovementRepo) ListByProductWarehouse(ctx context.Context, productID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.MovementEntry, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE product_id = $1 AND warehouse_id = $2`
	args := []any{productID, warehouseID}
	pos := 3
	if from != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY occurred_at, id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements by product/warehouse: %w", err)
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.MovementEntry, error) {
	defer rows.Close()
	var list []*entity.MovementEntry
	for rows.Next() {
		var m entity.MovementEntry
		if err := rows.Scan(&m.ID, &m.StockRecordID, &m.ProductID, &m.WarehouseID, &m.LotID,
			&m.Delta, &m.QuantityBefore, &m.QuantityAfter, &m.Type, &m.DocumentNumber,
			&m.ReferenceType, &m.ReferenceID, &m.OccurredAt, &m.ActorID, &m.Note); err != nil {
			return nil, fmt.Errorf("scan movement entry: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
