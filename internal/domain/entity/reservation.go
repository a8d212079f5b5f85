package entity

import (
	"time"

	"github.com/invorya/stock-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Estados de una reserva.
// ACTIVE -> PARTIALLY_CONSUMED -> CONSUMED (terminal)
// ACTIVE | PARTIALLY_CONSUMED -> RELEASED (terminal, liberación manual)
// ACTIVE | PARTIALLY_CONSUMED -> EXPIRED (terminal, solo el sweeper)
const (
	ReservationStateACTIVE            = "ACTIVE"
	ReservationStatePARTIALLYCONSUMED = "PARTIALLY_CONSUMED"
	ReservationStateCONSUMED          = "CONSUMED"
	ReservationStateRELEASED          = "RELEASED"
	ReservationStateEXPIRED           = "EXPIRED"
)

// Tipos de reserva según el documento de negocio que la origina.
const (
	ReservationKindSALE     = "SALE"
	ReservationKindORDER    = "ORDER"
	ReservationKindTRANSFER = "TRANSFER"
	ReservationKindMANUAL   = "MANUAL"
)

// ValidReservationKind indica si kind es uno de los tipos conocidos.
func ValidReservationKind(kind string) bool {
	switch kind {
	case ReservationKindSALE, ReservationKindORDER, ReservationKindTRANSFER, ReservationKindMANUAL:
		return true
	}
	return false
}

// Reservation es una retención temporal de unidades contra el Available de un
// StockRecord. No toca Quantity hasta el consumo. Las reservas terminales se
// conservan para auditoría; nunca se borra una con ConsumedQuantity > 0.
type Reservation struct {
	ID               string
	StockRecordID    string
	ProductID        string
	WarehouseID      string
	LotID            *string
	ReservedQuantity decimal.Decimal
	ConsumedQuantity decimal.Decimal
	State            string
	Kind             string
	ExpiresAt        *time.Time
	CreatedBy        string
	// Referencia opaca al documento de negocio que origina la reserva
	// (venta, traslado, orden externa). Par genérico (tipo, id): el conjunto
	// de tipos es abierto para integraciones externas.
	ReferenceType string
	ReferenceID   string
	Reason        string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ReleasedBy    string
	ReleasedAt    *time.Time
}

// Remaining devuelve las unidades aún retenidas: ReservedQuantity - ConsumedQuantity.
func (r *Reservation) Remaining() decimal.Decimal {
	return r.ReservedQuantity.Sub(r.ConsumedQuantity)
}

// IsTerminal indica si la reserva ya no admite mutaciones.
func (r *Reservation) IsTerminal() bool {
	switch r.State {
	case ReservationStateCONSUMED, ReservationStateRELEASED, ReservationStateEXPIRED:
		return true
	}
	return false
}

// IsExpired indica si ExpiresAt ya pasó. Una reserva expirada sigue siendo válida
// para lecturas y consumo hasta que el sweeper la procese (timeout cooperativo).
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// ApplyConsume incrementa ConsumedQuantity y transiciona el estado a
// PARTIALLY_CONSUMED o CONSUMED. Falla con ErrInvalidState en estados terminales
// y con ErrExceedsRemaining si amount > Remaining().
func (r *Reservation) ApplyConsume(amount decimal.Decimal, now time.Time) error {
	if r.IsTerminal() {
		return domain.ErrInvalidState
	}
	if !amount.IsPositive() {
		return domain.ErrInvalidInput
	}
	if amount.GreaterThan(r.Remaining()) {
		return domain.ErrExceedsRemaining
	}
	r.ConsumedQuantity = r.ConsumedQuantity.Add(amount)
	if r.ConsumedQuantity.Equal(r.ReservedQuantity) {
		r.State = ReservationStateCONSUMED
	} else {
		r.State = ReservationStatePARTIALLYCONSUMED
	}
	r.UpdatedAt = now
	return nil
}

// ApplyRelease marca la reserva como RELEASED (o EXPIRED si expired) y registra
// quién y por qué. El remanente devuelto al stock lo maneja el caller bajo el
// lock de la tripleta. Falla con ErrInvalidState si ya es terminal.
func (r *Reservation) ApplyRelease(actor, reason string, expired bool, now time.Time) error {
	if r.IsTerminal() {
		return domain.ErrInvalidState
	}
	if expired {
		r.State = ReservationStateEXPIRED
	} else {
		r.State = ReservationStateRELEASED
	}
	r.ReleasedBy = actor
	r.Reason = reason
	released := now
	r.ReleasedAt = &released
	r.UpdatedAt = now
	return nil
}

// ApplyQuantityChange fija una nueva cantidad reservada (Update). newQuantity
// debe ser >= ConsumedQuantity; si queda igual al consumido la reserva pasa a
// CONSUMED (ya no retiene nada). El ajuste de available/reserved en el
// StockRecord corre por cuenta del caller.
func (r *Reservation) ApplyQuantityChange(newQuantity decimal.Decimal, now time.Time) error {
	if r.IsTerminal() {
		return domain.ErrInvalidState
	}
	if !newQuantity.IsPositive() || newQuantity.LessThan(r.ConsumedQuantity) {
		return domain.ErrInvalidInput
	}
	r.ReservedQuantity = newQuantity
	switch {
	case r.ConsumedQuantity.Equal(r.ReservedQuantity):
		r.State = ReservationStateCONSUMED
	case r.ConsumedQuantity.IsPositive():
		r.State = ReservationStatePARTIALLYCONSUMED
	default:
		r.State = ReservationStateACTIVE
	}
	r.UpdatedAt = now
	return nil
}
