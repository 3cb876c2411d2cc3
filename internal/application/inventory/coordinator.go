package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// RetryPolicy política de reintentos para la clase de concurrencia.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	StorageTimeout  time.Duration // tiempo máximo por intento; 0 = sin límite
}

// DefaultRetryPolicy valores por defecto (3 intentos).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
		StorageTimeout:  5 * time.Second,
	}
}

// Coordinator ejecuta validación + append al libro + proyección como una sola unidad durable.
// Solo reintenta ErrConcurrentModification y ErrStorageTimeout; el resto se devuelve sin reintento.
type Coordinator struct {
	tx      TxRunner
	policy  RetryPolicy
	log     *logger.Logger
	metrics CoordinatorMetrics
}

// NewCoordinator construye el coordinador. log y metrics son opcionales.
func NewCoordinator(tx TxRunner, policy RetryPolicy, log *logger.Logger, metrics CoordinatorMetrics) *Coordinator {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Coordinator{tx: tx, policy: policy, log: log, metrics: metrics}
}

// Execute corre fn dentro de una transacción, reintentando con revalidación (fn vuelve a
// leer todo en cada intento). La cancelación del llamador solo se respeta antes de empezar:
// una vez iniciado el commit la unidad termina en éxito o fallo, nunca a medias.
func (c *Coordinator) Execute(ctx context.Context, operation string, fn func(ctx context.Context, repos TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	commitCtx := context.WithoutCancel(ctx)

	attempts := 0
	var last error
	op := func() error {
		attempts++
		err := c.runOnce(commitCtx, fn)
		if err == nil {
			return nil
		}
		last = err
		if !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.policy.InitialInterval
	eb.MaxInterval = c.policy.MaxInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithMaxRetries(eb, uint64(c.policy.MaxAttempts-1))

	err := backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		c.observeRetry(operation, err)
		if c.log != nil {
			c.log.Warn().Err(err).Str("op", operation).Int("intento", attempts).
				Dur("espera", wait).Msg("conflicto en unidad atómica, reintentando")
		}
	})
	if err == nil {
		if c.metrics != nil {
			c.metrics.ObserveCommit(operation, attempts)
		}
		return nil
	}

	if domain.IsRetryable(last) {
		err = fmt.Errorf("%w (agotados %d intentos)", last, attempts)
	}
	c.observeFailure(operation, err)
	return err
}

func (c *Coordinator) runOnce(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error {
	attemptCtx := ctx
	if c.policy.StorageTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.policy.StorageTimeout)
		defer cancel()
	}
	err := c.tx.Run(attemptCtx, fn)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrStorageTimeout) {
		return fmt.Errorf("%w: %v", domain.ErrStorageTimeout, err)
	}
	return err
}

func (c *Coordinator) observeRetry(operation string, err error) {
	if c.metrics == nil {
		return
	}
	reason := "concurrent_modification"
	if errors.Is(err, domain.ErrStorageTimeout) {
		reason = "storage_timeout"
	}
	c.metrics.ObserveRetry(operation, reason)
}

func (c *Coordinator) observeFailure(operation string, err error) {
	class := errorClass(err)
	if c.metrics != nil {
		c.metrics.ObserveFailure(operation, class)
	}
	if c.log != nil && class != "validation" && class != "state" {
		c.log.Error().Err(err).Str("op", operation).Str("clase", class).Msg("unidad atómica fallida")
	}
}

func errorClass(err error) string {
	switch {
	case domain.IsValidation(err):
		return "validation"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "state"
	case domain.IsRetryable(err):
		return "concurrency"
	default:
		return "internal"
	}
}
