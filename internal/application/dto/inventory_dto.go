package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementLineRequest línea de un documento.
type MovementLineRequest struct {
	LineNo    int             `json:"line_no" validate:"required,min=1"`
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitValue decimal.Decimal `json:"unit_value"`
}

// CreateMovementRequest body para POST /api/movements.
type CreateMovementRequest struct {
	Type               string                `json:"type" validate:"required,oneof=RECEIPT ISSUE TRANSFER"`
	StoreID            string                `json:"store_id" validate:"required_unless=Type TRANSFER"`
	OriginStoreID      string                `json:"origin_store_id" validate:"required_if=Type TRANSFER"`
	DestinationStoreID string                `json:"destination_store_id" validate:"required_if=Type TRANSFER"`
	TotalAmount        decimal.Decimal       `json:"total_amount"`
	Annotations        string                `json:"annotations" validate:"max=500"`
	Lines              []MovementLineRequest `json:"lines" validate:"dive"`
}

// UpdateMovementRequest body para PUT /api/movements/:id (solo borradores).
type UpdateMovementRequest struct {
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Annotations string                `json:"annotations" validate:"max=500"`
	Lines       []MovementLineRequest `json:"lines" validate:"dive"`
}

// MovementFilterRequest query de GET /api/movements.
type MovementFilterRequest struct {
	Type    string `query:"type" validate:"omitempty,oneof=RECEIPT ISSUE TRANSFER"`
	State   string `query:"state" validate:"omitempty,oneof=DRAFT POSTED SENT RECEIVED CANCELLED"`
	StoreID string `query:"store_id"`
	Limit   int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset  int    `query:"offset" validate:"omitempty,min=0"`
}

// RebuildRequest body para POST /api/stock/rebuild.
type RebuildRequest struct {
	StoreID   string `json:"store_id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
}

// ToLines convierte las líneas del request al dominio.
func ToLines(in []MovementLineRequest) []entity.MovementLine {
	out := make([]entity.MovementLine, 0, len(in))
	for _, l := range in {
		out = append(out, entity.MovementLine{LineNo: l.LineNo, ProductID: l.ProductID, Quantity: l.Quantity, UnitValue: l.UnitValue})
	}
	return out
}

// MovementLineResponse línea con total calculado.
type MovementLineResponse struct {
	LineNo    int             `json:"line_no"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitValue decimal.Decimal `json:"unit_value"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// MovementResponse snapshot de solo lectura de un documento.
type MovementResponse struct {
	ID                 string                 `json:"id"`
	Code               string                 `json:"code,omitempty"`
	Type               string                 `json:"type"`
	State              string                 `json:"state"`
	StoreID            string                 `json:"store_id,omitempty"`
	OriginStoreID      string                 `json:"origin_store_id,omitempty"`
	DestinationStoreID string                 `json:"destination_store_id,omitempty"`
	TotalAmount        decimal.Decimal        `json:"total_amount"`
	Annotations        string                 `json:"annotations,omitempty"`
	Lines              []MovementLineResponse `json:"lines"`
	CreatedBy          string                 `json:"created_by"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
	PostedAt           *time.Time             `json:"posted_at,omitempty"`
	SentAt             *time.Time             `json:"sent_at,omitempty"`
	ReceivedAt         *time.Time             `json:"received_at,omitempty"`
	CancelledAt        *time.Time             `json:"cancelled_at,omitempty"`
	CancelledBy        string                 `json:"cancelled_by,omitempty"`
	Version            int                    `json:"version"`
}

// ToMovementResponse arma el snapshot de un documento.
func ToMovementResponse(m *entity.Movement) MovementResponse {
	lines := make([]MovementLineResponse, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, MovementLineResponse{
			LineNo: l.LineNo, ProductID: l.ProductID, Quantity: l.Quantity, UnitValue: l.UnitValue, LineTotal: l.LineTotal(),
		})
	}
	return MovementResponse{
		ID: m.ID, Code: m.Code, Type: string(m.Type), State: string(m.State),
		StoreID: m.StoreID, OriginStoreID: m.OriginStoreID, DestinationStoreID: m.DestinationStoreID,
		TotalAmount: m.TotalAmount, Annotations: m.Annotations, Lines: lines,
		CreatedBy: m.CreatedBy, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
		PostedAt: m.PostedAt, SentAt: m.SentAt, ReceivedAt: m.ReceivedAt,
		CancelledAt: m.CancelledAt, CancelledBy: m.CancelledBy, Version: m.Version,
	}
}

// StockPositionResponse posición de (tienda, producto).
type StockPositionResponse struct {
	StoreID               string          `json:"store_id"`
	ProductID             string          `json:"product_id"`
	Available             decimal.Decimal `json:"available"`
	InTransit             decimal.Decimal `json:"in_transit"`
	AverageCost           decimal.Decimal `json:"average_cost"`
	LastAppliedSequenceNo int64           `json:"last_applied_sequence_no"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// ToStockPositionResponse convierte una posición.
func ToStockPositionResponse(p *entity.StockPosition) StockPositionResponse {
	return StockPositionResponse{
		StoreID: p.StoreID, ProductID: p.ProductID, Available: p.Available, InTransit: p.InTransit,
		AverageCost: p.AverageCost, LastAppliedSequenceNo: p.LastAppliedSequenceNo, UpdatedAt: p.UpdatedAt,
	}
}

// PivotResponse stock de un producto por tienda.
type PivotResponse struct {
	ProductID      string                  `json:"product_id"`
	Stores         []StockPositionResponse `json:"stores"`
	TotalAvailable decimal.Decimal         `json:"total_available"`
	TotalInTransit decimal.Decimal         `json:"total_in_transit"`
}

// KardexRowResponse fila del kardex.
type KardexRowResponse struct {
	SequenceNo   int64           `json:"sequence_no"`
	Date         time.Time       `json:"date"`
	StoreID      string          `json:"store_id"`
	DocumentID   string          `json:"document_id"`
	DocumentCode string          `json:"document_code"`
	Kind         string          `json:"kind"`
	Direction    string          `json:"direction"`
	QuantityIn   decimal.Decimal `json:"quantity_in"`
	QuantityOut  decimal.Decimal `json:"quantity_out"`
	UnitValue    decimal.Decimal `json:"unit_value"`
	Stock        decimal.Decimal `json:"stock"`
}

// KardexResponse kardex con saldos inicial y final.
type KardexResponse struct {
	ProductID string              `json:"product_id"`
	StoreID   string              `json:"store_id,omitempty"`
	Opening   decimal.Decimal     `json:"opening"`
	Rows      []KardexRowResponse `json:"rows"`
	Closing   decimal.Decimal     `json:"closing"`
}

// ToKardexRows convierte las filas del kardex.
func ToKardexRows(rows []entity.KardexEntry) []KardexRowResponse {
	out := make([]KardexRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, KardexRowResponse{
			SequenceNo: r.SequenceNo, Date: r.Timestamp, StoreID: r.StoreID, DocumentID: r.DocumentID,
			DocumentCode: r.DocumentCode, Kind: string(r.Kind), Direction: r.Direction,
			QuantityIn: r.QuantityIn, QuantityOut: r.QuantityOut, UnitValue: r.UnitValue, Stock: r.Stock,
		})
	}
	return out
}

// AuditResponse resultado de comparar proyección y replay.
type AuditResponse struct {
	StoreID       string                `json:"store_id"`
	ProductID     string                `json:"product_id"`
	Consistent    bool                  `json:"consistent"`
	Entries       int                   `json:"entries"`
	Projected     StockPositionResponse `json:"projected"`
	Replayed      StockPositionResponse `json:"replayed"`
	DiffAvailable decimal.Decimal       `json:"diff_available"`
	DiffInTransit decimal.Decimal       `json:"diff_in_transit"`
	DiffSequence  int64                 `json:"diff_sequence"`
}
