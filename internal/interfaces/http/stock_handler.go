package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/invorya/stock-ledger/internal/application/dto"
	"github.com/invorya/stock-ledger/internal/application/ledger"
)

var validate = validator.New()

// StockHandler maneja las peticiones HTTP del ledger de stock: ajustes físicos,
// carga inicial y las lecturas de auditoría (protegido).
type StockHandler struct {
	store       *ledger.StockStoreUseCase
	initialLoad *ledger.InitialLoadUseCase
	queries     *ledger.StockQueryUseCase
	manager     *ledger.ReservationUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(
	store *ledger.StockStoreUseCase,
	initialLoad *ledger.InitialLoadUseCase,
	queries *ledger.StockQueryUseCase,
	manager *ledger.ReservationUseCase,
) *StockHandler {
	return &StockHandler{store: store, initialLoad: initialLoad, queries: queries, manager: manager}
}

// Adjust godoc
// @Summary      Entrada física o ajuste directo de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "product_id, warehouse_id, delta (+/-), movement_type"
// @Success      200   {object}  dto.StockLotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	rec, err := h.store.ApplyPhysicalDelta(c.Context(), ledger.PhysicalDeltaInput{
		ProductID:     in.ProductID,
		WarehouseID:   in.WarehouseID,
		LotID:         in.LotID,
		Delta:         in.Delta,
		MovementType:  in.MovementType,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		ActorID:       GetActorID(c),
		Note:          in.Note,
		Expiration:    in.Expiration,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.StockLotResponse{
		LotID:          rec.LotID,
		Quantity:       rec.Quantity,
		Available:      rec.Available,
		Reserved:       rec.Reserved,
		ExpirationDate: rec.ExpirationDate,
	})
}

// InitialLoad godoc
// @Summary      Carga inicial / ajuste masivo de stock
// @Description  Procesa cada fila en forma independiente y devuelve un reporte
//
//	por fila; recargar una tripleta ya cargada es aditivo y queda con warning.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InitialLoadRequest  true  "filas (product_id, warehouse_id, quantity, lot_id, expiration)"
// @Success      200   {object}  dto.InitialLoadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/initial-load [post]
func (h *StockHandler) InitialLoad(c *fiber.Ctx) error {
	var in dto.InitialLoadRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	rows := make([]ledger.InitialLoadRow, 0, len(in.Rows))
	for _, row := range in.Rows {
		rows = append(rows, ledger.InitialLoadRow{
			ProductID:   row.ProductID,
			WarehouseID: row.WarehouseID,
			LotID:       row.LotID,
			Quantity:    row.Quantity,
			Expiration:  row.Expiration,
		})
	}
	report := h.initialLoad.Load(c.Context(), rows, GetActorID(c))
	out := dto.InitialLoadResponse{
		Total:     report.Total,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Warnings:  report.Warnings,
		Rows:      make([]dto.InitialLoadRowResult, 0, len(report.Rows)),
	}
	for _, row := range report.Rows {
		out.Rows = append(out.Rows, dto.InitialLoadRowResult{
			Index:       row.Index,
			ProductID:   row.ProductID,
			WarehouseID: row.WarehouseID,
			LotID:       row.LotID,
			OK:          row.OK,
			Warning:     row.Warning,
			Error:       row.Error,
		})
	}
	return c.JSON(out)
}

// Overview godoc
// @Summary      Stock de un producto en una bodega
// @Description  Cantidad física, disponible y reservada, desglose por lote y
//
//	reservas no terminales que retienen stock.
//
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productID    path  string  true  "ID de producto"
// @Param        warehouseID  path  string  true  "ID de bodega"
// @Success      200  {object}  dto.StockOverviewResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{productID}/{warehouseID} [get]
func (h *StockHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.queries.Overview(c.Context(), c.Params("productID"), c.Params("warehouseID"))
	if err != nil {
		return respondDomainError(c, err)
	}
	out := dto.StockOverviewResponse{
		ProductID:    overview.ProductID,
		WarehouseID:  overview.WarehouseID,
		Quantity:     overview.Quantity,
		Available:    overview.Available,
		Reserved:     overview.Reserved,
		Lots:         make([]dto.StockLotResponse, 0, len(overview.Lots)),
		Reservations: make([]dto.ReservationResponse, 0, len(overview.Reservations)),
	}
	for _, lot := range overview.Lots {
		out.Lots = append(out.Lots, dto.StockLotResponse{
			LotID:          lot.LotID,
			Quantity:       lot.Quantity,
			Available:      lot.Available,
			Reserved:       lot.Reserved,
			ExpirationDate: lot.ExpirationDate,
		})
	}
	for _, res := range overview.Reservations {
		out.Reservations = append(out.Reservations, toReservationResponse(res))
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Historial de movimientos de un producto en una bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productID    path   string  true   "ID de producto"
// @Param        warehouseID  path   string  true   "ID de bodega"
// @Param        from         query  string  false  "Desde (RFC3339)"
// @Param        to           query  string  false  "Hasta (RFC3339)"
// @Param        limit        query  int     false  "Máximo de entradas (default 50)"
// @Param        offset       query  int     false  "Offset de paginación"
// @Success      200  {array}   dto.MovementResponse
// @Router       /api/stock/{productID}/{warehouseID}/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from: fecha inválida (RFC3339)"})
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to: fecha inválida (RFC3339)"})
		}
		to = &t
	}
	entries, err := h.queries.Movements(c.Context(),
		c.Params("productID"), c.Params("warehouseID"),
		from, to, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondDomainError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(entries))
	for _, m := range entries {
		out = append(out, dto.MovementResponse{
			ID:             m.ID,
			ProductID:      m.ProductID,
			WarehouseID:    m.WarehouseID,
			LotID:          m.LotID,
			Delta:          m.Delta,
			QuantityBefore: m.QuantityBefore,
			QuantityAfter:  m.QuantityAfter,
			Type:           m.Type,
			DocumentNumber: m.DocumentNumber,
			ReferenceType:  m.ReferenceType,
			ReferenceID:    m.ReferenceID,
			OccurredAt:     m.OccurredAt,
			ActorID:        m.ActorID,
			Note:           m.Note,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// Available godoc
// @Summary      Disponible actual de un producto en una bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productID    path  string  true  "ID de producto"
// @Param        warehouseID  path  string  true  "ID de bodega"
// @Success      200  {object}  dto.AvailableResponse
// @Router       /api/stock/{productID}/{warehouseID}/available [get]
func (h *StockHandler) Available(c *fiber.Ctx) error {
	productID := c.Params("productID")
	warehouseID := c.Params("warehouseID")
	available, err := h.manager.AvailableFor(c.Context(), productID, warehouseID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.AvailableResponse{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Available:   available,
	})
}
