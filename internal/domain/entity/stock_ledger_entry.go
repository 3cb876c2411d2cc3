package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind clasifica cada asiento del libro de stock.
type MovementKind string

// Tipos de asiento del libro.
const (
	KindReceipt     MovementKind = "RECEIPT"      // ingreso
	KindIssue       MovementKind = "ISSUE"        // salida
	KindTransferOut MovementKind = "TRANSFER_OUT" // salida por traslado (reserva en tránsito)
	KindTransferIn  MovementKind = "TRANSFER_IN"  // llegada de traslado
	KindReversal    MovementKind = "REVERSAL"     // compensación de un documento anulado
)

// IsValid informa si el tipo de asiento es conocido.
func (k MovementKind) IsValid() bool {
	switch k {
	case KindReceipt, KindIssue, KindTransferOut, KindTransferIn, KindReversal:
		return true
	}
	return false
}

// StockLedgerEntry es un asiento inmutable del libro de stock (append-only).
// Las correcciones se registran como nuevos asientos REVERSAL con el mismo DocumentID.
type StockLedgerEntry struct {
	SequenceNo     int64 // asignado por el libro al anexar
	StoreID        string
	ProductID      string
	Kind           MovementKind
	QuantityDelta  decimal.Decimal // cambio firmado de disponible
	InTransitDelta decimal.Decimal // cambio firmado de en tránsito
	UnitValue      decimal.Decimal
	DocumentID     string
	DocumentCode   string
	LineNo         int
	CreatedBy      string
	Timestamp      time.Time
}

// Key devuelve la posición (tienda, producto) afectada por el asiento.
func (e *StockLedgerEntry) Key() PositionKey {
	return PositionKey{StoreID: e.StoreID, ProductID: e.ProductID}
}

// SequenceRange rango cerrado de números de secuencia asignados en un append.
type SequenceRange struct {
	From int64
	To   int64
}

// Empty informa si el rango no contiene asientos.
func (r SequenceRange) Empty() bool { return r.To < r.From || r.To == 0 }
