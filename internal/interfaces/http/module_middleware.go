package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
)

// permissionChecker contrato mínimo del colaborador de autorización.
// Lo implementa auth.Matrix.
type permissionChecker interface {
	HasPermission(role, module, action string) bool
}

// RequirePermission verifica que el rol del token pueda ejecutar la acción sobre el módulo.
// Debe usarse DESPUÉS de AuthMiddleware (necesita LocalRole).
//
// Comportamiento:
//   - 401 Unauthorized → token sin rol.
//   - 403 Forbidden    → el rol no tiene la acción en la matriz.
func RequirePermission(checker permissionChecker, module, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "MISSING_ROLE",
				Message: "el token no incluye rol",
			})
		}
		if !checker.HasPermission(role, module, action) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "el rol '" + role + "' no puede ejecutar '" + action + "' en '" + module + "'",
			})
		}
		return c.Next()
	}
}
