// Package auth matriz de permisos por rol. La autenticación (login, emisión de tokens) es
// externa; aquí solo se decide si un rol puede ejecutar una acción sobre un módulo.
package auth

// Roles reconocidos en el claim "role" del token.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// ModuleInventory módulo de movimientos y stock.
const ModuleInventory = "inventory"

// Acciones del módulo de inventario.
const (
	ActionRead    = "read"
	ActionCreate  = "create"
	ActionCommit  = "commit"
	ActionSend    = "send"
	ActionReceive = "receive"
	ActionCancel  = "cancel"
	ActionAudit   = "audit"
)

type actionSet map[string]bool

// Matrix rol -> módulo -> acciones permitidas.
type Matrix map[string]map[string]actionSet

// DefaultMatrix permisos por defecto: el bodeguero opera movimientos, el vendedor solo consulta
// y registra borradores, la auditoría y reconstrucción quedan para admin.
func DefaultMatrix() Matrix {
	return Matrix{
		RoleAdmin: {
			ModuleInventory: {ActionRead: true, ActionCreate: true, ActionCommit: true, ActionSend: true,
				ActionReceive: true, ActionCancel: true, ActionAudit: true},
		},
		RoleBodeguero: {
			ModuleInventory: {ActionRead: true, ActionCreate: true, ActionCommit: true, ActionSend: true,
				ActionReceive: true, ActionCancel: true},
		},
		RoleVendedor: {
			ModuleInventory: {ActionRead: true, ActionCreate: true},
		},
	}
}

// HasPermission informa si el rol puede ejecutar la acción en el módulo.
func (m Matrix) HasPermission(role, module, action string) bool {
	return m[role][module][action]
}
