package inventory

import (
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// AmountTolerance diferencia máxima aceptada entre el total declarado y la suma de líneas
// (redondeo a dos decimales).
var AmountTolerance = decimal.New(5, -3)

// Decimales admitidos; coinciden con las columnas NUMERIC del esquema.
const (
	QuantityScale  int32 = 4
	UnitValueScale int32 = 6
	AmountScale    int32 = 2
)

// fitsScale informa si el valor se representa sin pérdida con places decimales.
func fitsScale(v decimal.Decimal, places int32) bool {
	return v.Equal(v.Round(places))
}

// ValidateMovement valida un documento antes de confirmarlo. No toca almacenamiento.
func ValidateMovement(m *entity.Movement) error {
	if m == nil || !m.Type.IsValid() {
		return domain.ErrInvalidInput
	}
	if err := ValidateStores(m); err != nil {
		return err
	}
	if err := ValidateLines(m.Lines); err != nil {
		return err
	}
	return ValidateAmount(m.TotalAmount, m.Lines)
}

// ValidateStores verifica tiendas obligatorias y, para traslados, origen ≠ destino.
func ValidateStores(m *entity.Movement) error {
	if !m.IsTransfer() {
		if m.StoreID == "" {
			return fmt.Errorf("%w: store_id requerido", domain.ErrInvalidInput)
		}
		return nil
	}
	if m.OriginStoreID == "" || m.DestinationStoreID == "" {
		return fmt.Errorf("%w: origen y destino requeridos", domain.ErrInvalidInput)
	}
	if m.OriginStoreID == m.DestinationStoreID {
		return fmt.Errorf("%w: %s", domain.ErrSameStore, m.OriginStoreID)
	}
	return nil
}

// ValidateLines exige LineNo únicos y consecutivos desde 1, producto, cantidad > 0 y valor >= 0.
func ValidateLines(lines []entity.MovementLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: el documento no tiene líneas", domain.ErrInvalidLine)
	}
	seen := make(map[int]struct{}, len(lines))
	for _, l := range lines {
		if l.LineNo < 1 || l.LineNo > len(lines) {
			return fmt.Errorf("%w: line_no %d fuera de 1..%d", domain.ErrInvalidLine, l.LineNo, len(lines))
		}
		if _, dup := seen[l.LineNo]; dup {
			return fmt.Errorf("%w: line_no %d repetido", domain.ErrInvalidLine, l.LineNo)
		}
		seen[l.LineNo] = struct{}{}
		if l.ProductID == "" {
			return fmt.Errorf("%w: línea %d sin producto", domain.ErrInvalidLine, l.LineNo)
		}
		if !l.Quantity.IsPositive() {
			return fmt.Errorf("%w: línea %d cantidad %s", domain.ErrInvalidQuantity, l.LineNo, l.Quantity)
		}
		if l.UnitValue.IsNegative() {
			return fmt.Errorf("%w: línea %d valor unitario negativo", domain.ErrInvalidLine, l.LineNo)
		}
		if err := validateLineScale(l); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDraft revisa lo que el almacenamiento no puede guardar sin alterar: line_no repetidos
// y valores con más decimales que las columnas. El resto se valida al confirmar.
func ValidateDraft(total decimal.Decimal, lines []entity.MovementLine) error {
	if !fitsScale(total, AmountScale) {
		return fmt.Errorf("%w: total %s con más de %d decimales", domain.ErrInvalidInput, total, AmountScale)
	}
	seen := make(map[int]struct{}, len(lines))
	for _, l := range lines {
		if _, dup := seen[l.LineNo]; dup {
			return fmt.Errorf("%w: line_no %d repetido", domain.ErrInvalidLine, l.LineNo)
		}
		seen[l.LineNo] = struct{}{}
		if err := validateLineScale(l); err != nil {
			return err
		}
	}
	return nil
}

func validateLineScale(l entity.MovementLine) error {
	if !fitsScale(l.Quantity, QuantityScale) {
		return fmt.Errorf("%w: línea %d cantidad %s con más de %d decimales", domain.ErrInvalidQuantity, l.LineNo, l.Quantity, QuantityScale)
	}
	if !fitsScale(l.UnitValue, UnitValueScale) {
		return fmt.Errorf("%w: línea %d valor unitario %s con más de %d decimales", domain.ErrInvalidLine, l.LineNo, l.UnitValue, UnitValueScale)
	}
	return nil
}

// ValidateAmount compara el total declarado con la suma recalculada de las líneas.
func ValidateAmount(declared decimal.Decimal, lines []entity.MovementLine) error {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	if declared.Sub(sum).Abs().GreaterThan(AmountTolerance) {
		return fmt.Errorf("%w: declarado %s, calculado %s", domain.ErrAmountMismatch, declared.StringFixed(2), sum.StringFixed(2))
	}
	return nil
}

// RequiredStock agrupa por posición las cantidades que los asientos restan del disponible.
func RequiredStock(entries []*entity.StockLedgerEntry) map[entity.PositionKey]decimal.Decimal {
	req := make(map[entity.PositionKey]decimal.Decimal)
	for _, e := range entries {
		if !e.QuantityDelta.IsNegative() {
			continue
		}
		k := e.Key()
		req[k] = req[k].Add(e.QuantityDelta.Neg())
	}
	return req
}

// ValidateStock falla con ErrInsufficientStock si algún asiento deja disponible negativo
// respecto a las posiciones leídas.
func ValidateStock(entries []*entity.StockLedgerEntry, positions map[entity.PositionKey]*entity.StockPosition) error {
	req := RequiredStock(entries)
	keys := make([]entity.PositionKey, 0, len(req))
	for k := range req {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].StoreID != keys[j].StoreID {
			return keys[i].StoreID < keys[j].StoreID
		}
		return keys[i].ProductID < keys[j].ProductID
	})
	for _, k := range keys {
		available := decimal.Zero
		if p, ok := positions[k]; ok && p != nil {
			available = p.Available
		}
		if req[k].GreaterThan(available) {
			return fmt.Errorf("%w: producto %s en tienda %s (solicitado %s, disponible %s)",
				domain.ErrInsufficientStock, k.ProductID, k.StoreID, req[k], available)
		}
	}
	return nil
}
