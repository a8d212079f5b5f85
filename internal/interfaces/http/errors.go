package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/invorya/stock-ledger/internal/application/dto"
	"github.com/invorya/stock-ledger/internal/domain"
	"github.com/rs/zerolog/log"
)

// respondDomainError mapea errores de dominio a códigos HTTP.
// InsufficientStock y compañía son condiciones esperadas (409); InvariantViolation
// es un defecto del ledger: se loguea a nivel error para alerta operativa y se
// responde 500 sin detalle al usuario.
func respondDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: "la reserva no admite esta operación en su estado actual"})
	case errors.Is(err, domain.ErrExceedsRemaining):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "EXCEEDS_REMAINING", Message: "cantidad excede el remanente de la reserva"})
	case errors.Is(err, domain.ErrInsufficientAvailable), errors.Is(err, domain.ErrInsufficientReserved):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto con el estado actual del stock"})
	case errors.Is(err, domain.ErrInvariantViolation):
		log.Error().Err(err).Str("path", c.Path()).Msg("invariante de stock violado")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INVARIANT_VIOLATION", Message: "error interno del ledger"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
