package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeINITIALLOAD = "INITIAL_LOAD"            // carga inicial de stock
	MovementTypeIN          = "IN"                      // entrada física (compra, recepción)
	MovementTypeADJUSTMENT  = "ADJUSTMENT"              // ajuste directo (+/-)
	MovementTypeCONSUMPTION = "RESERVATION_CONSUMPTION" // consumo de unidades reservadas
)

// ValidMovementType indica si t es un tipo de movimiento conocido.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeINITIALLOAD, MovementTypeIN, MovementTypeADJUSTMENT, MovementTypeCONSUMPTION:
		return true
	}
	return false
}

// MovementEntry es una entrada inmutable del log de movimientos: todo cambio de
// Quantity en un StockRecord deja exactamente una entrada con snapshot antes/después.
// Reproducir los deltas en orden de OccurredAt reconstruye el Quantity actual.
// Una corrección siempre es una entrada compensatoria nueva, nunca una edición.
type MovementEntry struct {
	ID             string
	StockRecordID  string
	ProductID      string
	WarehouseID    string
	LotID          *string
	Delta          decimal.Decimal
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	Type           string
	DocumentNumber string
	ReferenceType  string
	ReferenceID    string
	OccurredAt     time.Time
	ActorID        string
	Note           string
}
