package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AdjustmentRequest body para POST /api/stock/adjustments (ApplyPhysicalDelta).
type AdjustmentRequest struct {
	ProductID     string          `json:"product_id" validate:"required"`
	WarehouseID   string          `json:"warehouse_id" validate:"required"`
	LotID         *string         `json:"lot_id,omitempty"`
	Delta         decimal.Decimal `json:"delta"`
	MovementType  string          `json:"movement_type" validate:"required,oneof=INITIAL_LOAD IN ADJUSTMENT"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Note          string          `json:"note,omitempty"`
	Expiration    *time.Time      `json:"expiration,omitempty"`
}

// InitialLoadRowRequest una fila del body de POST /api/stock/initial-load.
type InitialLoadRowRequest struct {
	ProductID   string          `json:"product_id" validate:"required"`
	WarehouseID string          `json:"warehouse_id" validate:"required"`
	LotID       *string         `json:"lot_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Expiration  *time.Time      `json:"expiration,omitempty"`
}

// InitialLoadRequest body para POST /api/stock/initial-load.
type InitialLoadRequest struct {
	Rows []InitialLoadRowRequest `json:"rows" validate:"required,min=1,max=1000,dive"`
}

// InitialLoadRowResult resultado por fila en la respuesta del lote.
type InitialLoadRowResult struct {
	Index       int     `json:"index"`
	ProductID   string  `json:"product_id"`
	WarehouseID string  `json:"warehouse_id"`
	LotID       *string `json:"lot_id,omitempty"`
	OK          bool    `json:"ok"`
	Warning     string  `json:"warning,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// InitialLoadResponse reporte del lote de carga inicial.
type InitialLoadResponse struct {
	Total     int                    `json:"total"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Warnings  int                    `json:"warnings"`
	Rows      []InitialLoadRowResult `json:"rows"`
}

// ReserveRequest body para POST /api/reservations.
type ReserveRequest struct {
	ProductID     string          `json:"product_id" validate:"required"`
	WarehouseID   string          `json:"warehouse_id" validate:"required"`
	LotID         *string         `json:"lot_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	Kind          string          `json:"kind" validate:"required,oneof=SALE ORDER TRANSFER MANUAL"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
}

// ConsumeRequest body para POST /api/reservations/:id/consume.
type ConsumeRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes,omitempty"`
}

// ReleaseRequest body para POST /api/reservations/:id/release.
type ReleaseRequest struct {
	Reason string `json:"reason,omitempty"`
}

// UpdateReservationRequest body para PATCH /api/reservations/:id.
type UpdateReservationRequest struct {
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	ClearExpiry bool             `json:"clear_expiry,omitempty"`
}

// ReservationResponse representación HTTP de una reserva.
type ReservationResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	WarehouseID      string          `json:"warehouse_id"`
	LotID            *string         `json:"lot_id,omitempty"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
	ConsumedQuantity decimal.Decimal `json:"consumed_quantity"`
	Remaining        decimal.Decimal `json:"remaining"`
	State            string          `json:"state"`
	Kind             string          `json:"kind"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
	CreatedBy        string          `json:"created_by"`
	ReferenceType    string          `json:"reference_type,omitempty"`
	ReferenceID      string          `json:"reference_id,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	ReleasedBy       string          `json:"released_by,omitempty"`
	ReleasedAt       *time.Time      `json:"released_at,omitempty"`
}

// StockLotResponse desglose por lote en la vista de stock.
type StockLotResponse struct {
	LotID          *string         `json:"lot_id,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Available      decimal.Decimal `json:"available"`
	Reserved       decimal.Decimal `json:"reserved"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
}

// StockOverviewResponse vista agregada de producto+bodega.
type StockOverviewResponse struct {
	ProductID    string                `json:"product_id"`
	WarehouseID  string                `json:"warehouse_id"`
	Quantity     decimal.Decimal       `json:"quantity"`
	Available    decimal.Decimal       `json:"available"`
	Reserved     decimal.Decimal       `json:"reserved"`
	Lots         []StockLotResponse    `json:"lots"`
	Reservations []ReservationResponse `json:"reservations"`
}

// MovementResponse una entrada del log de movimientos.
type MovementResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	WarehouseID    string          `json:"warehouse_id"`
	LotID          *string         `json:"lot_id,omitempty"`
	Delta          decimal.Decimal `json:"delta"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	Type           string          `json:"type"`
	DocumentNumber string          `json:"document_number"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
	ActorID        string          `json:"actor_id,omitempty"`
	Note           string          `json:"note,omitempty"`
}

// AvailableResponse respuesta de GET .../available.
type AvailableResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Available   decimal.Decimal `json:"available"`
}
