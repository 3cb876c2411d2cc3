package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ownership restringe las lecturas de stock a tiendas y productos de la empresa del token.
// Igual que loadOwned, lo ajeno se reporta como inexistente.
type ownership struct {
	stores   repository.StoreRepository
	products repository.ProductRepository
}

// check valida los identificadores no vacíos contra los datos maestros de la empresa.
func (o ownership) check(ctx context.Context, companyID, storeID, productID string) error {
	if companyID == "" {
		return domain.ErrInvalidInput
	}
	if storeID != "" {
		ok, err := o.stores.Exists(ctx, companyID, storeID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, storeID)
		}
	}
	if productID != "" {
		ok, err := o.products.Exists(ctx, companyID, productID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
	}
	return nil
}
