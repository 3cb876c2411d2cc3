package repository

import "context"

// StoreRepository consulta de datos maestros de tiendas/bodegas (colaborador externo).
type StoreRepository interface {
	Exists(ctx context.Context, companyID, storeID string) (bool, error)
}
