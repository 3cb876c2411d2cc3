package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.DivRound(sum, 6)
}

// ValueOutflows valora las salidas (egreso y envío de traslado) al costo promedio de la posición
// leída. Las salidas no mueven el promedio, así su reverso reingresa el stock al mismo costo.
func ValueOutflows(entries []*entity.StockLedgerEntry, positions map[entity.PositionKey]*entity.StockPosition) {
	for _, e := range entries {
		if e.Kind != entity.KindIssue && e.Kind != entity.KindTransferOut {
			continue
		}
		if pos, ok := positions[e.Key()]; ok {
			e.UnitValue = pos.AverageCost
		}
	}
}
