package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `seq_no, store_id, product_id, kind, quantity_delta, in_transit_delta, unit_value,
	document_id, document_code, line_no, created_by, occurred_at`

// LedgerRepo libro de stock sobre PostgreSQL. Solo INSERT; la tabla rechaza UPDATE/DELETE por trigger.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append inserta el lote en un único round-trip (pgx.Batch) y asigna seq_no a cada asiento.
func (r *LedgerRepo) Append(ctx context.Context, entries []*entity.StockLedgerEntry) (entity.SequenceRange, error) {
	if len(entries) == 0 {
		return entity.SequenceRange{}, nil
	}
	const query = `
		INSERT INTO stock_ledger (store_id, product_id, kind, quantity_delta, in_transit_delta, unit_value,
			document_id, document_code, line_no, created_by, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING seq_no`
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query,
			e.StoreID, e.ProductID, string(e.Kind), e.QuantityDelta, e.InTransitDelta, e.UnitValue,
			e.DocumentID, e.DocumentCode, e.LineNo, e.CreatedBy, e.Timestamp,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	var rng entity.SequenceRange
	for i, e := range entries {
		if err := br.QueryRow().Scan(&e.SequenceNo); err != nil {
			_ = br.Close()
			return entity.SequenceRange{}, classifyError("append ledger", err)
		}
		if i == 0 || e.SequenceNo < rng.From {
			rng.From = e.SequenceNo
		}
		if e.SequenceNo > rng.To {
			rng.To = e.SequenceNo
		}
	}
	if err := br.Close(); err != nil {
		return entity.SequenceRange{}, classifyError("append ledger", err)
	}
	return rng, nil
}

// ListByPosition asientos de (tienda, producto) en orden de secuencia; usa idx_stock_ledger_position.
func (r *LedgerRepo) ListByPosition(ctx context.Context, storeID, productID string, uptoSeq int64) ([]*entity.StockLedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM stock_ledger WHERE store_id = $1 AND product_id = $2`
	args := []any{storeID, productID}
	if uptoSeq > 0 {
		query += ` AND seq_no <= $3`
		args = append(args, uptoSeq)
	}
	query += ` ORDER BY seq_no`
	return r.list(ctx, "list ledger by position", query, args...)
}

// ListByProduct asientos de un producto por fecha y secuencia (kardex).
func (r *LedgerRepo) ListByProduct(ctx context.Context, f entity.KardexFilter) ([]*entity.StockLedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM stock_ledger WHERE product_id = $1`
	args := []any{f.ProductID}
	pos := 2
	if f.StoreID != "" {
		query += fmt.Sprintf(" AND store_id = $%d", pos)
		args = append(args, f.StoreID)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", pos)
		args = append(args, *f.To)
	}
	query += ` ORDER BY occurred_at, seq_no`
	return r.list(ctx, "list ledger by product", query, args...)
}

// BalanceBefore suma de cantidades anteriores a before (saldo inicial del kardex).
func (r *LedgerRepo) BalanceBefore(ctx context.Context, productID, storeID string, before time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(quantity_delta), 0) FROM stock_ledger WHERE product_id = $1 AND occurred_at < $2`
	args := []any{productID, before}
	if storeID != "" {
		query += ` AND store_id = $3`
		args = append(args, storeID)
	}
	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, args...).Scan(&sum); err != nil {
		return decimal.Zero, classifyError("ledger balance", err)
	}
	return sum, nil
}

// ListByDocument asientos de un documento en orden de secuencia.
func (r *LedgerRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.StockLedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM stock_ledger WHERE document_id = $1 ORDER BY seq_no`
	return r.list(ctx, "list ledger by document", query, documentID)
}

func (r *LedgerRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockLedgerEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}
	defer rows.Close()
	var list []*entity.StockLedgerEntry
	for rows.Next() {
		var e entity.StockLedgerEntry
		var kind string
		if err := rows.Scan(&e.SequenceNo, &e.StoreID, &e.ProductID, &kind, &e.QuantityDelta, &e.InTransitDelta,
			&e.UnitValue, &e.DocumentID, &e.DocumentCode, &e.LineNo, &e.CreatedBy, &e.Timestamp); err != nil {
			return nil, classifyError("scan ledger entry", err)
		}
		e.Kind = entity.MovementKind(kind)
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(op, err)
	}
	return list, nil
}
