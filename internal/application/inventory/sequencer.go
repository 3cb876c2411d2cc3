package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// CodeSequencer genera códigos legibles únicos por (tipo, periodo).
// El contador es durable y atómico; un código reservado en un intento fallido se abandona,
// por lo que puede haber huecos en la numeración.
type CodeSequencer struct {
	counter repository.CodeCounterRepository
}

// NewCodeSequencer construye el secuenciador sobre un contador durable (PostgreSQL o Redis).
func NewCodeSequencer(counter repository.CodeCounterRepository) *CodeSequencer {
	return &CodeSequencer{counter: counter}
}

// Next reserva el siguiente código para el tipo y periodo (YYYYMM).
func (s *CodeSequencer) Next(ctx context.Context, t entity.MovementType, period string) (string, error) {
	prefix, err := inventory.CodePrefix(t)
	if err != nil {
		return "", err
	}
	n, err := s.counter.Next(ctx, prefix, period)
	if err != nil {
		return "", fmt.Errorf("reservar código %s-%s: %w", prefix, period, err)
	}
	return inventory.FormatCode(prefix, period, n), nil
}
