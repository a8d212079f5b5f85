package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/invorya/stock-ledger/internal/application/dto"
	"github.com/invorya/stock-ledger/internal/application/ledger"
	"github.com/invorya/stock-ledger/internal/domain/entity"
)

// ReservationHandler maneja las peticiones HTTP de reservas de stock (protegido).
type ReservationHandler struct {
	manager *ledger.ReservationUseCase
}

// NewReservationHandler construye el handler.
func NewReservationHandler(manager *ledger.ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{manager: manager}
}

// Reserve godoc
// @Summary      Reservar stock
// @Description  Retiene unidades del disponible de producto+bodega y crea la
//
//	reserva en estado ACTIVE. Dos reservas concurrentes nunca exceden el disponible.
//
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "product_id, warehouse_id, quantity, kind"
// @Success      201   {object}  dto.ReservationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservations [post]
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	res, err := h.manager.Reserve(c.Context(), ledger.ReserveInput{
		ProductID:     in.ProductID,
		WarehouseID:   in.WarehouseID,
		LotID:         in.LotID,
		Quantity:      in.Quantity,
		Kind:          in.Kind,
		ActorID:       GetActorID(c),
		ExpiresAt:     in.ExpiresAt,
		Reason:        in.Reason,
		Notes:         in.Notes,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReservationResponse(res))
}

// GetByID godoc
// @Summary      Consultar una reserva
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de reserva"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id} [get]
func (h *ReservationHandler) GetByID(c *fiber.Ctx) error {
	res, err := h.manager.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toReservationResponse(res))
}

// Consume godoc
// @Summary      Consumir unidades de una reserva
// @Description  Baja física de unidades retenidas: quantity y reserved bajan
//
//	juntos y queda registro en el log de movimientos.
//
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID de reserva"
// @Param        body  body  dto.ConsumeRequest  true  "amount"
// @Success      200   {object}  dto.ReservationResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/consume [post]
func (h *ReservationHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.manager.Consume(c.Context(), c.Params("id"), in.Amount, GetActorID(c), in.Notes)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toReservationResponse(res))
}

// Release godoc
// @Summary      Liberar una reserva
// @Description  Devuelve el remanente al disponible y marca la reserva RELEASED.
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID de reserva"
// @Param        body  body  dto.ReleaseRequest  false "reason"
// @Success      200   {object}  dto.ReservationResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/release [post]
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	var in dto.ReleaseRequest
	// Body opcional: solo lleva el motivo.
	_ = c.BodyParser(&in)
	res, err := h.manager.Release(c.Context(), c.Params("id"), GetActorID(c), in.Reason)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toReservationResponse(res))
}

// Update godoc
// @Summary      Modificar cantidad o vencimiento de una reserva
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID de reserva"
// @Param        body  body  dto.UpdateReservationRequest  true  "quantity y/o expires_at"
// @Success      200   {object}  dto.ReservationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservations/{id} [patch]
func (h *ReservationHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.manager.Update(c.Context(), c.Params("id"), ledger.UpdateInput{
		NewQuantity:  in.Quantity,
		NewExpiresAt: in.ExpiresAt,
		ClearExpiry:  in.ClearExpiry,
		ActorID:      GetActorID(c),
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toReservationResponse(res))
}

func toReservationResponse(res *entity.Reservation) dto.ReservationResponse {
	return dto.ReservationResponse{
		ID:               res.ID,
		ProductID:        res.ProductID,
		WarehouseID:      res.WarehouseID,
		LotID:            res.LotID,
		ReservedQuantity: res.ReservedQuantity,
		ConsumedQuantity: res.ConsumedQuantity,
		Remaining:        res.Remaining(),
		State:            res.State,
		Kind:             res.Kind,
		ExpiresAt:        res.ExpiresAt,
		CreatedBy:        res.CreatedBy,
		ReferenceType:    res.ReferenceType,
		ReferenceID:      res.ReferenceID,
		Reason:           res.Reason,
		Notes:            res.Notes,
		CreatedAt:        res.CreatedAt,
		ReleasedBy:       res.ReleasedBy,
		ReleasedAt:       res.ReleasedAt,
	}
}
