package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.StoreRepository       = (*StoreCatalog)(nil)
	_ repository.ProductRepository     = (*ProductCatalog)(nil)
	_ repository.CodeCounterRepository = (*CodeCounter)(nil)
)

// AddStore registra una tienda de la empresa.
func (s *Store) AddStore(companyID, storeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stores[companyID] == nil {
		s.stores[companyID] = make(map[string]bool)
	}
	s.stores[companyID][storeID] = true
}

// AddProduct registra un producto de la empresa.
func (s *Store) AddProduct(companyID, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.products[companyID] == nil {
		s.products[companyID] = make(map[string]bool)
	}
	s.products[companyID][productID] = true
}

// StoreCatalog consulta de tiendas.
type StoreCatalog struct{ store *Store }

// ProductCatalog consulta de productos.
type ProductCatalog struct{ store *Store }

// Stores catálogo de tiendas.
func (s *Store) Stores() *StoreCatalog { return &StoreCatalog{store: s} }

// Products catálogo de productos.
func (s *Store) Products() *ProductCatalog { return &ProductCatalog{store: s} }

// Exists informa si la tienda pertenece a la empresa.
func (c *StoreCatalog) Exists(_ context.Context, companyID, storeID string) (bool, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.store.stores[companyID][storeID], nil
}

// Exists informa si el producto pertenece a la empresa.
func (c *ProductCatalog) Exists(_ context.Context, companyID, productID string) (bool, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.store.products[companyID][productID], nil
}

// CodeCounter contador de códigos en memoria. Atómico dentro del proceso.
type CodeCounter struct{ store *Store }

// Counter contador de códigos.
func (s *Store) Counter() *CodeCounter { return &CodeCounter{store: s} }

// Next incrementa y devuelve el contador de (kind, period).
func (c *CodeCounter) Next(ctx context.Context, kind, period string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	key := fmt.Sprintf("%s:%s", kind, period)
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.counters[key]++
	return c.store.counters[key], nil
}
