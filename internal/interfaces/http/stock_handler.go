package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// StockHandler consultas de stock (inventario, pivot, kardex) y auditoría del libro.
type StockHandler struct {
	projector *inventory.StockProjector
	ledger    *inventory.StockLedger
	validate  *validator.Validate
	log       *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(projector *inventory.StockProjector, ledger *inventory.StockLedger, log *logger.Logger) *StockHandler {
	return &StockHandler{projector: projector, ledger: ledger, validate: validator.New(), log: log}
}

// Positions GET /api/stock/positions?store_id=&limit=&offset=.
func (h *StockHandler) Positions(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	list, err := h.projector.ListByStore(c.Context(), GetCompanyID(c), c.Query("store_id"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	items := make([]dto.StockPositionResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.ToStockPositionResponse(p))
	}
	return c.JSON(fiber.Map{"items": items, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// Pivot GET /api/stock/pivot/:product_id.
func (h *StockHandler) Pivot(c *fiber.Ctx) error {
	res, err := h.projector.Pivot(c.Context(), GetCompanyID(c), c.Params("product_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	stores := make([]dto.StockPositionResponse, 0, len(res.Positions))
	for _, p := range res.Positions {
		stores = append(stores, dto.ToStockPositionResponse(p))
	}
	return c.JSON(dto.PivotResponse{
		ProductID: res.ProductID, Stores: stores,
		TotalAvailable: res.TotalAvailable, TotalInTransit: res.TotalInTransit,
	})
}

// Kardex GET /api/stock/kardex/:product_id?store_id=&from=&to= (fechas RFC3339 o YYYY-MM-DD).
func (h *StockHandler) Kardex(c *fiber.Ctx) error {
	from, err := parseDate(c.Query("from"), false)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: "from inválido"})
	}
	to, err := parseDate(c.Query("to"), true)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: "to inválido"})
	}
	res, err := h.projector.Kardex(c.Context(), GetCompanyID(c), entity.KardexFilter{
		ProductID: c.Params("product_id"),
		StoreID:   c.Query("store_id"),
		From:      from,
		To:        to,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.KardexResponse{
		ProductID: res.ProductID, StoreID: res.StoreID,
		Opening: res.Opening, Rows: dto.ToKardexRows(res.Entries), Closing: res.Closing,
	})
}

// Audit GET /api/stock/audit?store_id=&product_id=: compara proyección con replay.
func (h *StockHandler) Audit(c *fiber.Ctx) error {
	audit, err := h.ledger.Verify(c.Context(), GetCompanyID(c), c.Query("store_id"), c.Query("product_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.AuditResponse{
		StoreID:       audit.Projected.StoreID,
		ProductID:     audit.Projected.ProductID,
		Consistent:    audit.Diff.Consistent(),
		Entries:       audit.Entries,
		Projected:     dto.ToStockPositionResponse(audit.Projected),
		Replayed:      dto.ToStockPositionResponse(audit.Replayed),
		DiffAvailable: audit.Diff.Available,
		DiffInTransit: audit.Diff.InTransit,
		DiffSequence:  audit.Diff.Sequence,
	})
}

// Rebuild POST /api/stock/rebuild: reescribe la proyección desde el libro.
func (h *StockHandler) Rebuild(c *fiber.Ctx) error {
	var in dto.RebuildRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	pos, err := h.ledger.Rebuild(c.Context(), GetCompanyID(c), in.StoreID, in.ProductID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if h.log != nil {
		h.log.Info().Str("store_id", in.StoreID).Str("product_id", in.ProductID).
			Str("user_id", GetUserID(c)).Msg("proyección reconstruida desde el libro")
	}
	return c.JSON(dto.ToStockPositionResponse(pos))
}

// parseDate acepta RFC3339 o YYYY-MM-DD; con endOfDay una fecha sola cubre el día completo.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
