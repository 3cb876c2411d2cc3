package postgres

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo consulta de productos (datos maestros externos al motor). Pasar pool o tx (Querier).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de productos.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Exists informa si el producto existe para la empresa.
func (r *ProductRepo) Exists(ctx context.Context, companyID, productID string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND company_id = $2)`,
		productID, companyID).Scan(&ok)
	if err != nil {
		return false, classifyError("product exists", err)
	}
	return ok, nil
}

// Upsert registra o actualiza un producto (sincronización de datos maestros y seeds).
func (r *ProductRepo) Upsert(ctx context.Context, companyID, productID, sku, name string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, company_id, sku, name) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name`,
		productID, companyID, sku, name)
	return classifyError("upsert product", err)
}
