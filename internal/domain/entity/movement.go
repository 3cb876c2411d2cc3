package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType discrimina el documento de inventario.
type MovementType string

// Tipos de documento.
const (
	MovementTypeReceipt  MovementType = "RECEIPT"  // ingreso de mercadería
	MovementTypeIssue    MovementType = "ISSUE"    // salida de mercadería
	MovementTypeTransfer MovementType = "TRANSFER" // traslado entre tiendas
)

// IsValid informa si el tipo es conocido.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeReceipt, MovementTypeIssue, MovementTypeTransfer:
		return true
	}
	return false
}

// MovementState estado del ciclo de vida de un documento.
type MovementState string

const (
	StateDraft     MovementState = "DRAFT"
	StatePosted    MovementState = "POSTED"
	StateSent      MovementState = "SENT"
	StateReceived  MovementState = "RECEIVED"
	StateCancelled MovementState = "CANCELLED"
)

// MovementLine línea de un documento. LineTotal = Quantity * UnitValue.
type MovementLine struct {
	LineNo    int
	ProductID string
	Quantity  decimal.Decimal
	UnitValue decimal.Decimal
}

// LineTotal calcula el total de la línea.
func (l MovementLine) LineTotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitValue)
}

// Movement documento de inventario (ingreso, salida o traslado).
// Para RECEIPT/ISSUE se usa StoreID; para TRANSFER OriginStoreID y DestinationStoreID.
type Movement struct {
	ID                 string
	CompanyID          string
	Code               string
	Type               MovementType
	State              MovementState
	StoreID            string
	OriginStoreID      string
	DestinationStoreID string
	TotalAmount        decimal.Decimal
	Annotations        string
	Lines              []MovementLine
	CreatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	PostedAt           *time.Time
	SentAt             *time.Time
	ReceivedAt         *time.Time
	CancelledAt        *time.Time
	CancelledBy        string
	Version            int
}

// IsTransfer informa si el documento es un traslado.
func (m *Movement) IsTransfer() bool { return m.Type == MovementTypeTransfer }

// Stores devuelve las tiendas referenciadas por el documento.
func (m *Movement) Stores() []string {
	if m.IsTransfer() {
		return []string{m.OriginStoreID, m.DestinationStoreID}
	}
	return []string{m.StoreID}
}

// LinesTotal suma los totales de línea.
func (m *Movement) LinesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range m.Lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// Clone copia profunda (las líneas no se comparten).
func (m *Movement) Clone() *Movement {
	c := *m
	c.Lines = append([]MovementLine(nil), m.Lines...)
	return &c
}

// MovementFilter filtros para listar documentos.
type MovementFilter struct {
	CompanyID string
	Type      MovementType
	State     MovementState
	StoreID   string
	Limit     int
	Offset    int
}
