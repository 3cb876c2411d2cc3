package repository

import "context"

// CodeCounterRepository contador durable por (tipo, periodo).
// Next incrementa y lee de forma atómica: dos llamadas nunca obtienen el mismo valor.
type CodeCounterRepository interface {
	Next(ctx context.Context, kind, period string) (int64, error)
}
