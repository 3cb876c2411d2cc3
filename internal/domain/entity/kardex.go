package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección del asiento en el kardex.
const (
	DirectionIn  = "ENTRADA"
	DirectionOut = "SALIDA"
)

// KardexEntry fila del kardex de un producto con saldo corrido (Stock).
type KardexEntry struct {
	SequenceNo   int64
	Timestamp    time.Time
	StoreID      string
	DocumentID   string
	DocumentCode string
	Kind         MovementKind
	Direction    string
	QuantityIn   decimal.Decimal
	QuantityOut  decimal.Decimal
	UnitValue    decimal.Decimal
	Stock        decimal.Decimal
}

// KardexFilter filtros de consulta del kardex. StoreID vacío = todas las tiendas.
type KardexFilter struct {
	ProductID string
	StoreID   string
	From      *time.Time
	To        *time.Time
}
