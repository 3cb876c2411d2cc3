package inventory

import (
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var codePrefixes = map[entity.MovementType]string{
	entity.MovementTypeReceipt:  "ING",
	entity.MovementTypeIssue:    "SAL",
	entity.MovementTypeTransfer: "TRF",
}

// CodePrefix prefijo del código legible por tipo de documento.
func CodePrefix(t entity.MovementType) (string, error) {
	p, ok := codePrefixes[t]
	if !ok {
		return "", fmt.Errorf("%w: tipo %q", domain.ErrInvalidInput, t)
	}
	return p, nil
}

// PeriodKey clave de periodo (YYYYMM, UTC).
func PeriodKey(t time.Time) string {
	return t.UTC().Format("200601")
}

// FormatCode arma el código: ING-202610-000042.
func FormatCode(prefix, period string, n int64) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, period, n)
}
