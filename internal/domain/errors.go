package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del motor de movimientos de inventario.
var (
	ErrInvalidQuantity        = errors.New("cantidad inválida")
	ErrInvalidLine            = errors.New("línea de movimiento inválida")
	ErrAmountMismatch         = errors.New("el total declarado no coincide con las líneas")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrSameStore              = errors.New("la tienda de origen y destino son la misma")
	ErrUnknownReference       = errors.New("referencia desconocida")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")
	ErrConcurrentModification = errors.New("modificación concurrente")
	ErrStorageTimeout         = errors.New("tiempo de espera agotado en almacenamiento")
)

// IsRetryable informa si el error pertenece a la clase de concurrencia
// (el coordinador puede reintentar con revalidación).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrStorageTimeout)
}

// IsValidation informa si el error es de entrada rechazada (nunca se reintenta).
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidLine),
		errors.Is(err, ErrAmountMismatch),
		errors.Is(err, ErrSameStore),
		errors.Is(err, ErrUnknownReference),
		errors.Is(err, ErrInvalidInput):
		return true
	}
	return false
}
