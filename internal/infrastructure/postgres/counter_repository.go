package postgres

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.CodeCounterRepository = (*CounterRepo)(nil)

// CounterRepo contador de códigos por (tipo, periodo) en document_counters.
// Se usa con el pool, fuera de la unidad del movimiento: el código queda reservado aunque
// la unidad se revierta.
type CounterRepo struct {
	q Querier
}

// NewCounterRepository construye el contador.
func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

// Next incrementa y lee en una sola sentencia; el bloqueo de fila serializa a los llamadores.
func (r *CounterRepo) Next(ctx context.Context, kind, period string) (int64, error) {
	const query = `
		INSERT INTO document_counters (kind, period, value) VALUES ($1, $2, 1)
		ON CONFLICT (kind, period) DO UPDATE SET value = document_counters.value + 1
		RETURNING value`
	var n int64
	if err := r.q.QueryRow(ctx, query, kind, period).Scan(&n); err != nil {
		return 0, classifyError("next document code", err)
	}
	return n, nil
}
