package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionKey identifica una posición de stock.
type PositionKey struct {
	StoreID   string
	ProductID string
}

// StockPosition es la proyección materializada del libro para (tienda, producto).
// LastAppliedSequenceNo actúa como versión para el bloqueo optimista.
type StockPosition struct {
	StoreID               string
	ProductID             string
	Available             decimal.Decimal
	InTransit             decimal.Decimal
	AverageCost           decimal.Decimal
	LastAppliedSequenceNo int64
	UpdatedAt             time.Time
}

// NewStockPosition devuelve una posición vacía (génesis) para la clave.
func NewStockPosition(key PositionKey) *StockPosition {
	return &StockPosition{
		StoreID:     key.StoreID,
		ProductID:   key.ProductID,
		Available:   decimal.Zero,
		InTransit:   decimal.Zero,
		AverageCost: decimal.Zero,
	}
}

// Key devuelve la clave de la posición.
func (p *StockPosition) Key() PositionKey {
	return PositionKey{StoreID: p.StoreID, ProductID: p.ProductID}
}

// Clone copia la posición.
func (p *StockPosition) Clone() *StockPosition {
	c := *p
	return &c
}
