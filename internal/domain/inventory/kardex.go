package inventory

import (
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SortForKardex ordena por fecha y, ante empate, por SequenceNo (desempate canónico).
func SortForKardex(entries []*entity.StockLedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].SequenceNo < entries[j].SequenceNo
	})
}

// BuildKardex recorre los asientos de un producto y calcula el saldo corrido a partir de opening.
// Los asientos que solo mueven en tránsito (liquidación de traslados) no generan fila.
func BuildKardex(opening decimal.Decimal, entries []*entity.StockLedgerEntry) []entity.KardexEntry {
	ordered := append([]*entity.StockLedgerEntry(nil), entries...)
	SortForKardex(ordered)

	stock := opening
	rows := make([]entity.KardexEntry, 0, len(ordered))
	for _, e := range ordered {
		if e.QuantityDelta.IsZero() {
			continue
		}
		stock = stock.Add(e.QuantityDelta)
		row := entity.KardexEntry{
			SequenceNo:   e.SequenceNo,
			Timestamp:    e.Timestamp,
			StoreID:      e.StoreID,
			DocumentID:   e.DocumentID,
			DocumentCode: e.DocumentCode,
			Kind:         e.Kind,
			QuantityIn:   decimal.Zero,
			QuantityOut:  decimal.Zero,
			UnitValue:    e.UnitValue,
			Stock:        stock,
		}
		if e.QuantityDelta.IsPositive() {
			row.Direction = entity.DirectionIn
			row.QuantityIn = e.QuantityDelta
		} else {
			row.Direction = entity.DirectionOut
			row.QuantityOut = e.QuantityDelta.Neg()
		}
		rows = append(rows, row)
	}
	return rows
}
