package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")

	// ErrInsufficientStock: una reserva pide más unidades de las disponibles.
	// Condición esperada y recuperable para el caller (mostrar "stock insuficiente").
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Primitivas internas de movimiento entre available y reserved.
	ErrInsufficientAvailable = errors.New("cantidad disponible insuficiente")
	ErrInsufficientReserved  = errors.New("cantidad reservada insuficiente")

	// ErrInvalidState: operación sobre una reserva en estado terminal o incorrecto.
	ErrInvalidState = errors.New("estado de reserva inválido para la operación")

	// ErrExceedsRemaining: consumo mayor al remanente de la reserva.
	ErrExceedsRemaining = errors.New("cantidad excede el remanente de la reserva")

	// ErrInvariantViolation: quantity != available + reserved o algún valor negativo.
	// Indica un bug, nunca una condición normal; requiere alerta operativa, no mensaje al usuario.
	ErrInvariantViolation = errors.New("invariante de stock violado")
)
