// Package redis contador de códigos de documento sobre Redis (INCR atómico).
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.CodeCounterRepository = (*CodeCounter)(nil)

const defaultKeyPrefix = "inventario:seq:"

// CodeCounter contador durable por (tipo, periodo). INCR es atómico en el servidor, por lo
// que varias instancias de la API nunca obtienen el mismo valor.
type CodeCounter struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewCodeCounter construye el contador con un cliente existente.
func NewCodeCounter(client redis.UniversalClient, keyPrefix string) *CodeCounter {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &CodeCounter{client: client, keyPrefix: keyPrefix}
}

// NewClient abre la conexión y verifica con PING.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return client, nil
}

// Next incrementa y devuelve el contador de la clave.
func (c *CodeCounter) Next(ctx context.Context, kind, period string) (int64, error) {
	n, err := c.client.Incr(ctx, c.key(kind, period)).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", c.key(kind, period), err)
	}
	return n, nil
}

func (c *CodeCounter) key(kind, period string) string {
	return c.keyPrefix + kind + ":" + period
}
