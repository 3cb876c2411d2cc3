package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	iso  pgx.TxIsoLevel
}

// NewTxRunner construye el runner con el pool. isolation: "serializable" (por defecto) o "repeatable_read".
func NewTxRunner(pool *pgxpool.Pool, isolation string) *TxRunner {
	iso := pgx.Serializable
	if isolation == "repeatable_read" {
		iso = pgx.RepeatableRead
	}
	return &TxRunner{pool: pool, iso: iso}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los fallos de serialización del commit se reportan como ErrConcurrentModification.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.TxRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: r.iso})
	if err != nil {
		return classifyError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	repos := inventory.TxRepos{
		Ledger:    NewLedgerRepository(tx),
		Positions: NewPositionRepository(tx),
		Movements: NewMovementRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		return classifyError("unidad atómica", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyError("commit transaction", err)
	}
	return nil
}

// Repos repositorios sobre el pool (lecturas fuera de transacción).
func Repos(pool *pgxpool.Pool) inventory.TxRepos {
	return inventory.TxRepos{
		Ledger:    NewLedgerRepository(pool),
		Positions: NewPositionRepository(pool),
		Movements: NewMovementRepository(pool),
	}
}
