package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/invorya/stock-ledger/internal/application/ledger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockStore   *ledger.StockStoreUseCase
	InitialLoad  *ledger.InitialLoadUseCase
	Queries      *ledger.StockQueryUseCase
	Reservations *ledger.ReservationUseCase
	JWTSecret    string
}

// Router registra las rutas de la API. Todo el ledger es protegido: el token lo
// emite el back-office que nos rodea, aquí solo se valida y se extrae el actor.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Stock: ajustes físicos, carga inicial y lecturas de auditoría
	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.StockStore, deps.InitialLoad, deps.Queries, deps.Reservations)
	stock.Post("/adjustments", RequireRole("admin", "bodeguero"), stockHandler.Adjust)
	stock.Post("/initial-load", RequireRole("admin", "bodeguero"), stockHandler.InitialLoad)
	stock.Get("/:productID/:warehouseID", stockHandler.Overview)
	stock.Get("/:productID/:warehouseID/movements", stockHandler.Movements)
	stock.Get("/:productID/:warehouseID/available", stockHandler.Available)

	// Reservas: únicos puntos de entrada que mueven el bucket reserved
	reservations := api.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.Reservations)
	reservations.Post("/", reservationHandler.Reserve)
	reservations.Get("/:id", reservationHandler.GetByID)
	reservations.Post("/:id/consume", reservationHandler.Consume)
	reservations.Post("/:id/release", reservationHandler.Release)
	reservations.Patch("/:id", reservationHandler.Update)
}
