package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// PositionRepository define el puerto de la proyección de stock por tienda+producto.
type PositionRepository interface {
	// Get devuelve la posición; si no existe devuelve la posición génesis (todo en cero).
	Get(ctx context.Context, storeID, productID string) (*entity.StockPosition, error)
	// Save persiste la posición solo si LastAppliedSequenceNo en almacenamiento sigue siendo
	// expectedSeq. En otro caso devuelve domain.ErrConcurrentModification.
	Save(ctx context.Context, position *entity.StockPosition, expectedSeq int64) error
	ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.StockPosition, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockPosition, error)
}
