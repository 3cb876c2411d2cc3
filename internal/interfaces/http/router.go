package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/inventario-ledger/internal/application/auth"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Movements   *inventory.MovementUseCase
	Projector   *inventory.StockProjector
	Ledger      *inventory.StockLedger
	Permissions auth.Matrix
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	JWTSecret   string
	JWTIssuer   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Permissions == nil {
		deps.Permissions = auth.DefaultMatrix()
	}
	if deps.Metrics != nil {
		app.Use(requestMetrics(deps.Metrics))
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	can := func(action string) fiber.Handler {
		return RequirePermission(deps.Permissions, auth.ModuleInventory, action)
	}

	movements := api.Group("/movements")
	mh := NewMovementHandler(deps.Movements, deps.Logger)
	movements.Post("/", can(auth.ActionCreate), mh.Create)
	movements.Get("/", can(auth.ActionRead), mh.List)
	movements.Get("/:id", can(auth.ActionRead), mh.GetByID)
	movements.Put("/:id", can(auth.ActionCreate), mh.Update)
	movements.Post("/:id/commit", can(auth.ActionCommit), mh.Commit)
	movements.Post("/:id/send", can(auth.ActionSend), mh.Send)
	movements.Post("/:id/receive", can(auth.ActionReceive), mh.Receive)
	movements.Post("/:id/cancel", can(auth.ActionCancel), mh.Cancel)

	stock := api.Group("/stock")
	sh := NewStockHandler(deps.Projector, deps.Ledger, deps.Logger)
	stock.Get("/positions", can(auth.ActionRead), sh.Positions)
	stock.Get("/pivot/:product_id", can(auth.ActionRead), sh.Pivot)
	stock.Get("/kardex/:product_id", can(auth.ActionRead), sh.Kardex)
	stock.Get("/audit", can(auth.ActionAudit), sh.Audit)
	stock.Post("/rebuild", can(auth.ActionAudit), sh.Rebuild)
}

// requestMetrics cuenta peticiones por ruta registrada (no por path crudo).
func requestMetrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		m.ObserveRequest(c.Method(), c.Route().Path, status)
		return err
	}
}
