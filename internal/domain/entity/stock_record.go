package entity

import (
	"time"

	"github.com/invorya/stock-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// StockRecord es el registro autoritativo de cantidades por (producto, bodega, lote).
// Invariante: Quantity == Available + Reserved, y las tres cantidades >= 0.
// Un registro con Quantity 0 se conserva como ancla del ledger; nunca se borra.
type StockRecord struct {
	ID             string
	ProductID      string
	WarehouseID    string
	LotID          *string // nil = stock sin lote
	Quantity       decimal.Decimal
	Available      decimal.Decimal
	Reserved       decimal.Decimal
	ExpirationDate *time.Time // opcional, por lote
	LastUpdatedAt  time.Time
}

// NewStockRecord crea un registro en cero para una tripleta.
func NewStockRecord(productID, warehouseID string, lotID *string, expiration *time.Time, now time.Time) *StockRecord {
	return &StockRecord{
		ProductID:      productID,
		WarehouseID:    warehouseID,
		LotID:          lotID,
		Quantity:       decimal.Zero,
		Available:      decimal.Zero,
		Reserved:       decimal.Zero,
		ExpirationDate: expiration,
		LastUpdatedAt:  now,
	}
}

// CheckInvariant valida Quantity == Available + Reserved y no-negatividad.
// Se ejecuta como postcondición dentro de la misma transacción que mutó el registro.
func (s *StockRecord) CheckInvariant() error {
	if s.Quantity.IsNegative() || s.Available.IsNegative() || s.Reserved.IsNegative() {
		return domain.ErrInvariantViolation
	}
	if !s.Quantity.Equal(s.Available.Add(s.Reserved)) {
		return domain.ErrInvariantViolation
	}
	return nil
}

// ApplyDelta suma delta a Quantity y a Available (entrada física o ajuste directo,
// sin pasar por reservas). Falla con ErrInvariantViolation si dejaría Quantity
// o Available en negativo.
func (s *StockRecord) ApplyDelta(delta decimal.Decimal, now time.Time) error {
	newQty := s.Quantity.Add(delta)
	newAvail := s.Available.Add(delta)
	if newQty.IsNegative() || newAvail.IsNegative() {
		return domain.ErrInvariantViolation
	}
	s.Quantity = newQty
	s.Available = newAvail
	s.LastUpdatedAt = now
	return s.CheckInvariant()
}

// ShiftAvailableToReserved mueve amount de Available a Reserved sin tocar Quantity.
// Uso exclusivo del gestor de reservas, bajo el lock de la tripleta.
func (s *StockRecord) ShiftAvailableToReserved(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidInput
	}
	if amount.GreaterThan(s.Available) {
		return domain.ErrInsufficientAvailable
	}
	s.Available = s.Available.Sub(amount)
	s.Reserved = s.Reserved.Add(amount)
	s.LastUpdatedAt = now
	return s.CheckInvariant()
}

// ShiftReservedToAvailable devuelve amount de Reserved a Available sin tocar Quantity.
func (s *StockRecord) ShiftReservedToAvailable(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidInput
	}
	if amount.GreaterThan(s.Reserved) {
		return domain.ErrInsufficientReserved
	}
	s.Reserved = s.Reserved.Sub(amount)
	s.Available = s.Available.Add(amount)
	s.LastUpdatedAt = now
	return s.CheckInvariant()
}

// ConsumeReserved reduce Quantity y Reserved juntos (consumo físico de unidades
// previamente retenidas por una reserva).
func (s *StockRecord) ConsumeReserved(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidInput
	}
	if amount.GreaterThan(s.Reserved) {
		return domain.ErrInsufficientReserved
	}
	s.Quantity = s.Quantity.Sub(amount)
	s.Reserved = s.Reserved.Sub(amount)
	s.LastUpdatedAt = now
	return s.CheckInvariant()
}
