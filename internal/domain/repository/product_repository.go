package repository

import "context"

// ProductRepository consulta de datos maestros de productos (colaborador externo).
type ProductRepository interface {
	Exists(ctx context.Context, companyID, productID string) (bool, error)
}
