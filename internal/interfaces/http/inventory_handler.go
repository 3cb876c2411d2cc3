package http

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// MovementHandler maneja las peticiones HTTP de documentos de inventario (protegido).
type MovementHandler struct {
	uc       *inventory.MovementUseCase
	validate *validator.Validate
	log      *logger.Logger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *inventory.MovementUseCase, log *logger.Logger) *MovementHandler {
	return &MovementHandler{uc: uc, validate: validator.New(), log: log}
}

// Create POST /api/movements: registra un borrador.
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	m, err := h.uc.CreateDraft(c.Context(), inventory.CreateMovementInput{
		CompanyID:          companyID,
		UserID:             userID,
		Type:               entity.MovementType(in.Type),
		StoreID:            in.StoreID,
		OriginStoreID:      in.OriginStoreID,
		DestinationStoreID: in.DestinationStoreID,
		TotalAmount:        in.TotalAmount,
		Annotations:        in.Annotations,
		Lines:              dto.ToLines(in.Lines),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(m))
}

// Update PUT /api/movements/:id: reemplaza líneas y total de un borrador.
func (h *MovementHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	m, err := h.uc.UpdateDraft(c.Context(), inventory.UpdateDraftInput{
		CompanyID:   GetCompanyID(c),
		MovementID:  c.Params("id"),
		TotalAmount: in.TotalAmount,
		Annotations: in.Annotations,
		Lines:       dto.ToLines(in.Lines),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToMovementResponse(m))
}

// GetByID GET /api/movements/:id.
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	m, err := h.uc.Get(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToMovementResponse(m))
}

// List GET /api/movements?type=&state=&store_id=&limit=&offset=.
func (h *MovementHandler) List(c *fiber.Ctx) error {
	var q dto.MovementFilterRequest
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if err := h.validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	page := dto.PageRequest{Limit: q.Limit, Offset: q.Offset}
	page.DefaultPage()
	list, err := h.uc.List(c.Context(), entity.MovementFilter{
		CompanyID: GetCompanyID(c),
		Type:      entity.MovementType(q.Type),
		State:     entity.MovementState(q.State),
		StoreID:   q.StoreID,
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, dto.ToMovementResponse(m))
	}
	return c.JSON(fiber.Map{
		"items": items,
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

type transitionFunc func(ctx context.Context, companyID, userID, id string) (*entity.Movement, error)

func (h *MovementHandler) transition(fn transitionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := fn(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(dto.ToMovementResponse(m))
	}
}

// Commit POST /api/movements/:id/commit.
func (h *MovementHandler) Commit(c *fiber.Ctx) error { return h.transition(h.uc.Commit)(c) }

// Send POST /api/movements/:id/send.
func (h *MovementHandler) Send(c *fiber.Ctx) error { return h.transition(h.uc.Send)(c) }

// Receive POST /api/movements/:id/receive.
func (h *MovementHandler) Receive(c *fiber.Ctx) error { return h.transition(h.uc.Receive)(c) }

// Cancel POST /api/movements/:id/cancel.
func (h *MovementHandler) Cancel(c *fiber.Ctx) error { return h.transition(h.uc.Cancel)(c) }
