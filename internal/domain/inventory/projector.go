package inventory

import (
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Apply aplica asientos a una posición y devuelve la posición resultante sin mutar la original.
// Es idempotente por SequenceNo: los asientos con secuencia <= LastAppliedSequenceNo se ignoran.
func Apply(pos *entity.StockPosition, entries []*entity.StockLedgerEntry) (*entity.StockPosition, error) {
	next := pos.Clone()
	ordered := append([]*entity.StockLedgerEntry(nil), entries...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SequenceNo < ordered[j].SequenceNo })

	for _, e := range ordered {
		if e.Key() != pos.Key() {
			return nil, fmt.Errorf("%w: asiento %d es de %s/%s", domain.ErrInvalidInput, e.SequenceNo, e.StoreID, e.ProductID)
		}
		if e.SequenceNo <= next.LastAppliedSequenceNo {
			continue
		}
		if e.QuantityDelta.IsPositive() {
			next.AverageCost = CostCalculator(next.Available, next.AverageCost, e.QuantityDelta, e.UnitValue)
		}
		next.Available = next.Available.Add(e.QuantityDelta)
		next.InTransit = next.InTransit.Add(e.InTransitDelta)
		if next.Available.IsNegative() {
			return nil, fmt.Errorf("%w: disponible %s en %s/%s tras asiento %d",
				domain.ErrInsufficientStock, next.Available, e.StoreID, e.ProductID, e.SequenceNo)
		}
		if next.InTransit.IsNegative() {
			return nil, fmt.Errorf("%w: en tránsito %s en %s/%s tras asiento %d",
				domain.ErrInsufficientStock, next.InTransit, e.StoreID, e.ProductID, e.SequenceNo)
		}
		if next.Available.IsZero() {
			next.AverageCost = decimal.Zero
		}
		next.LastAppliedSequenceNo = e.SequenceNo
		if e.Timestamp.After(next.UpdatedAt) {
			next.UpdatedAt = e.Timestamp
		}
	}
	return next, nil
}

// Replay recalcula la posición desde génesis.
func Replay(key entity.PositionKey, entries []*entity.StockLedgerEntry) (*entity.StockPosition, error) {
	return Apply(entity.NewStockPosition(key), entries)
}

// GroupByPosition agrupa asientos por posición conservando el orden de entrada.
func GroupByPosition(entries []*entity.StockLedgerEntry) (map[entity.PositionKey][]*entity.StockLedgerEntry, []entity.PositionKey) {
	groups := make(map[entity.PositionKey][]*entity.StockLedgerEntry)
	var order []entity.PositionKey
	for _, e := range entries {
		k := e.Key()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}
	return groups, order
}

// PositionDiff diferencia entre la proyección materializada y el replay del libro.
type PositionDiff struct {
	Available decimal.Decimal
	InTransit decimal.Decimal
	Sequence  int64
}

// Consistent informa si no hay diferencias.
func (d PositionDiff) Consistent() bool {
	return d.Available.IsZero() && d.InTransit.IsZero() && d.Sequence == 0
}

// Diff compara proyección contra replay (proyección - replay).
func Diff(projected, replayed *entity.StockPosition) PositionDiff {
	return PositionDiff{
		Available: projected.Available.Sub(replayed.Available),
		InTransit: projected.InTransit.Sub(replayed.InTransit),
		Sequence:  projected.LastAppliedSequenceNo - replayed.LastAppliedSequenceNo,
	}
}
