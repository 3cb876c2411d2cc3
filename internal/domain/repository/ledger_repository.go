package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LedgerRepository puerto del libro de stock. Solo expone escritura por append;
// no hay Update ni Delete.
type LedgerRepository interface {
	// Append anexa el lote completo y asigna SequenceNo a cada asiento.
	Append(ctx context.Context, entries []*entity.StockLedgerEntry) (entity.SequenceRange, error)
	// ListByPosition devuelve los asientos de (tienda, producto) en orden de secuencia.
	// uptoSeq <= 0 significa sin límite superior.
	ListByPosition(ctx context.Context, storeID, productID string, uptoSeq int64) ([]*entity.StockLedgerEntry, error)
	// ListByProduct devuelve los asientos de un producto ordenados por fecha y secuencia.
	ListByProduct(ctx context.Context, filter entity.KardexFilter) ([]*entity.StockLedgerEntry, error)
	// BalanceBefore suma QuantityDelta de los asientos anteriores a before (saldo inicial del kardex).
	BalanceBefore(ctx context.Context, productID, storeID string, before time.Time) (decimal.Decimal, error)
	// ListByDocument devuelve los asientos de un documento en orden de secuencia.
	ListByDocument(ctx context.Context, documentID string) ([]*entity.StockLedgerEntry, error)
}
