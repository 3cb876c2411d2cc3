package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia de documentos de inventario.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// Update persiste cabecera y líneas si la versión almacenada es expectedVersion;
	// en otro caso devuelve domain.ErrConcurrentModification.
	Update(ctx context.Context, movement *entity.Movement, expectedVersion int) error
	List(ctx context.Context, filter entity.MovementFilter) ([]*entity.Movement, error)
}
