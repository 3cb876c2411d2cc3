package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción de BD.
type TxRepos struct {
	Ledger    repository.LedgerRepository
	Positions repository.PositionRepository
	Movements repository.MovementRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso. Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// CoordinatorMetrics registra el resultado de cada unidad atómica.
// Lo implementa infrastructure/metrics; nil desactiva métricas.
type CoordinatorMetrics interface {
	ObserveCommit(operation string, attempts int)
	ObserveRetry(operation, reason string)
	ObserveFailure(operation, class string)
}
