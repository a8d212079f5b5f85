package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/invorya/stock-ledger/internal/domain/entity"
	"github.com/invorya/stock-ledger/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL
// (usable con pool o tx).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, stock_record_id, product_id, warehouse_id, lot_id,
	reserved_quantity, consumed_quantity, state, kind, expires_at, created_by,
	reference_type, reference_id, reason, notes, created_at, updated_at, released_by, released_at`

// Create persiste una reserva nueva.
func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		res.ID, res.StockRecordID, res.ProductID, res.WarehouseID, res.LotID,
		res.ReservedQuantity, res.ConsumedQuantity, res.State, res.Kind, res.ExpiresAt, res.CreatedBy,
		res.ReferenceType, res.ReferenceID, res.Reason, res.Notes, res.CreatedAt, res.UpdatedAt,
		res.ReleasedBy, res.ReleasedAt,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// GetByID obtiene una reserva por ID, o nil si no existe.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	res, err := scanReservation(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// GetByIDForUpdate obtiene la reserva y bloquea su fila. Llamar siempre después
// de bloquear la fila del StockRecord (orden fijo: tripleta primero).
func (r *ReservationRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	res, err := scanReservation(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get reservation for update: %w", err)
	}
	return res, nil
}

// Save persiste el estado mutable de la reserva.
func (r *ReservationRepo) Save(ctx context.Context, res *entity.Reservation) error {
	query := `
		UPDATE reservations
		SET reserved_quantity = $2, consumed_quantity = $3, state = $4, expires_at = $5,
		    reason = $6, notes = $7, updated_at = $8, released_by = $9, released_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		res.ID, res.ReservedQuantity, res.ConsumedQuantity, res.State, res.ExpiresAt,
		res.Reason, res.Notes, res.UpdatedAt, res.ReleasedBy, res.ReleasedAt,
	)
	if err != nil {
		return fmt.Errorf("save reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save reservation %s: fila inexistente", res.ID)
	}
	return nil
}

// ListActiveByProductWarehouse lista las reservas no terminales de producto+bodega.
func (r *ReservationRepo) ListActiveByProductWarehouse(ctx context.Context, productID, warehouseID string) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE product_id = $1 AND warehouse_id = $2 AND state IN ($3, $4)
		ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, productID, warehouseID,
		entity.ReservationStateACTIVE, entity.ReservationStatePARTIALLYCONSUMED)
	if err != nil {
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	return collectReservations(rows)
}

// ListExpired lista reservas vivas con expires_at < now, las más antiguas primero.
func (r *ReservationRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE state IN ($1, $2) AND expires_at IS NOT NULL AND expires_at < $3
		ORDER BY expires_at
		LIMIT $4`
	rows, err := r.q.Query(ctx, query,
		entity.ReservationStateACTIVE, entity.ReservationStatePARTIALLYCONSUMED, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	return collectReservations(rows)
}

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(&res.ID, &res.StockRecordID, &res.ProductID, &res.WarehouseID, &res.LotID,
		&res.ReservedQuantity, &res.ConsumedQuantity, &res.State, &res.Kind, &res.ExpiresAt, &res.CreatedBy,
		&res.ReferenceType, &res.ReferenceID, &res.Reason, &res.Notes, &res.CreatedAt, &res.UpdatedAt,
		&res.ReleasedBy, &res.ReleasedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func collectReservations(rows pgx.Rows) ([]*entity.Reservation, error) {
	defer rows.Close()
	var list []*entity.Reservation
	for rows.Next() {
		var res entity.Reservation
		if err := rows.Scan(&res.ID, &res.StockRecordID, &res.ProductID, &res.WarehouseID, &res.LotID,
			&res.ReservedQuantity, &res.ConsumedQuantity, &res.State, &res.Kind, &res.ExpiresAt, &res.CreatedBy,
			&res.ReferenceType, &res.ReferenceID, &res.Reason, &res.Notes, &res.CreatedAt, &res.UpdatedAt,
			&res.ReleasedBy, &res.ReleasedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, &res)
	}
	return list, rows.Err()
}
