// Package docnum genera números de documento legibles para el log de movimientos.
package docnum

import (
	"fmt"
	"strings"
	"time"

	"github.com/invorya/stock-ledger/internal/domain/entity"
)

// Prefijos por tipo de movimiento.
var prefixes = map[string]string{
	entity.MovementTypeINITIALLOAD: "CI", // carga inicial
	entity.MovementTypeIN:          "EN", // entrada
	entity.MovementTypeADJUSTMENT:  "AJ", // ajuste
	entity.MovementTypeCONSUMPTION: "CR", // consumo de reserva
}

// For genera el número de documento de un movimiento: determinístico para un
// mismo evento (tipo + instante + id del evento), p. ej. "AJ-20260115-9f8e7d6c".
func For(movementType string, occurredAt time.Time, eventID string) string {
	prefix, ok := prefixes[movementType]
	if !ok {
		prefix = "MV"
	}
	short := strings.ReplaceAll(eventID, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, occurredAt.UTC().Format("20060102"), short)
}
