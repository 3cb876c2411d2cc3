package postgres

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StoreRepository = (*StoreRepo)(nil)

// StoreRepo consulta de tiendas (datos maestros externos al motor).
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador.
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

// Exists informa si la tienda existe para la empresa.
func (r *StoreRepo) Exists(ctx context.Context, companyID, storeID string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stores WHERE id = $1 AND company_id = $2)`,
		storeID, companyID).Scan(&ok)
	if err != nil {
		return false, classifyError("store exists", err)
	}
	return ok, nil
}

// Upsert registra o renombra una tienda (sincronización de datos maestros y seeds).
func (r *StoreRepo) Upsert(ctx context.Context, companyID, storeID, name string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stores (id, company_id, name) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, storeID, companyID, name)
	return classifyError("upsert store", err)
}
