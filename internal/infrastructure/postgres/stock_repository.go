package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.PositionRepository = (*PositionRepo)(nil)

const positionColumns = `store_id, product_id, available, in_transit, average_cost, last_applied_seq, updated_at`

// PositionRepo proyección de stock sobre PostgreSQL (usable con pool o tx).
// last_applied_seq es la versión para el bloqueo optimista.
type PositionRepo struct {
	q Querier
}

// NewPositionRepository construye el adaptador de posiciones. Pasar pool o tx (Querier).
func NewPositionRepository(q Querier) *PositionRepo {
	return &PositionRepo{q: q}
}

// Get obtiene la posición; si no hay fila devuelve la posición génesis.
func (r *PositionRepo) Get(ctx context.Context, storeID, productID string) (*entity.StockPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM stock_positions WHERE store_id = $1 AND product_id = $2`
	p, err := scanPosition(r.q.QueryRow(ctx, query, storeID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.NewStockPosition(entity.PositionKey{StoreID: storeID, ProductID: productID}), nil
		}
		return nil, classifyError("get position", err)
	}
	return p, nil
}

// Save escribe la posición solo si last_applied_seq sigue en expectedSeq.
// Cero filas afectadas significa que otra unidad avanzó la posición primero.
func (r *PositionRepo) Save(ctx context.Context, p *entity.StockPosition, expectedSeq int64) error {
	var query string
	args := []any{p.StoreID, p.ProductID, p.Available, p.InTransit, p.AverageCost, p.LastAppliedSequenceNo, p.UpdatedAt, expectedSeq}
	if expectedSeq == 0 {
		query = `
			INSERT INTO stock_positions (` + positionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (store_id, product_id) DO UPDATE SET
				available = EXCLUDED.available,
				in_transit = EXCLUDED.in_transit,
				average_cost = EXCLUDED.average_cost,
				last_applied_seq = EXCLUDED.last_applied_seq,
				updated_at = EXCLUDED.updated_at
			WHERE stock_positions.last_applied_seq = $8`
	} else {
		query = `
			UPDATE stock_positions SET
				available = $3, in_transit = $4, average_cost = $5, last_applied_seq = $6, updated_at = $7
			WHERE store_id = $1 AND product_id = $2 AND last_applied_seq = $8`
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: posición %s/%s", domain.ErrConcurrentModification, p.StoreID, p.ProductID)
		}
		return classifyError("save position", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: posición %s/%s (esperada secuencia %d)",
			domain.ErrConcurrentModification, p.StoreID, p.ProductID, expectedSeq)
	}
	return nil
}

// ListByStore inventario de una tienda ordenado por producto.
func (r *PositionRepo) ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.StockPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM stock_positions WHERE store_id = $1
		ORDER BY product_id LIMIT $2 OFFSET $3`
	return r.list(ctx, "list positions by store", query, storeID, limit, offset)
}

// ListByProduct posiciones de un producto en todas las tiendas (pivot).
func (r *PositionRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM stock_positions WHERE product_id = $1 ORDER BY store_id`
	return r.list(ctx, "list positions by product", query, productID)
}

func (r *PositionRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockPosition, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}
	defer rows.Close()
	var list []*entity.StockPosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, classifyError("scan position", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(op, err)
	}
	return list, nil
}

func scanPosition(row pgx.Row) (*entity.StockPosition, error) {
	var p entity.StockPosition
	if err := row.Scan(&p.StoreID, &p.ProductID, &p.Available, &p.InTransit, &p.AverageCost,
		&p.LastAppliedSequenceNo, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
