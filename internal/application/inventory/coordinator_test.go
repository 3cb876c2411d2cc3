package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// scriptedTx devuelve los errores programados en orden y luego ejecuta fn.
type scriptedTx struct {
	errs  []error
	calls int
}

func (s *scriptedTx) Run(ctx context.Context, fn func(ctx context.Context, repos appinv.TxRepos) error) error {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return err
	}
	return fn(ctx, appinv.TxRepos{})
}

type recordingMetrics struct {
	mu       sync.Mutex
	commits  map[string]int
	retries  []string
	failures []string
}

func (m *recordingMetrics) ObserveCommit(op string, attempts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commits == nil {
		m.commits = make(map[string]int)
	}
	m.commits[op] = attempts
}

func (m *recordingMetrics) ObserveRetry(op, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries = append(m.retries, op+":"+reason)
}

func (m *recordingMetrics) ObserveFailure(op, class string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, op+":"+class)
}

func fastPolicy(attempts int) appinv.RetryPolicy {
	return appinv.RetryPolicy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func noop(context.Context, appinv.TxRepos) error { return nil }

func TestCoordinator_ReintentaConflictosYLuegoConfirma(t *testing.T) {
	tx := &scriptedTx{errs: []error{domain.ErrConcurrentModification, domain.ErrStorageTimeout}}
	metrics := &recordingMetrics{}
	c := appinv.NewCoordinator(tx, fastPolicy(3), nil, metrics)

	require.NoError(t, c.Execute(context.Background(), "commit", noop))
	assert.Equal(t, 3, tx.calls)
	assert.Equal(t, 3, metrics.commits["commit"])
	assert.Equal(t, []string{"commit:concurrent_modification", "commit:storage_timeout"}, metrics.retries)
}

func TestCoordinator_AgotaIntentos(t *testing.T) {
	tx := &scriptedTx{errs: []error{
		domain.ErrConcurrentModification, domain.ErrConcurrentModification, domain.ErrConcurrentModification,
	}}
	metrics := &recordingMetrics{}
	c := appinv.NewCoordinator(tx, fastPolicy(3), nil, metrics)

	err := c.Execute(context.Background(), "send", noop)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Equal(t, 3, tx.calls)
	assert.Equal(t, []string{"send:concurrency"}, metrics.failures)
}

func TestCoordinator_NoReintentaErroresNoRecuperables(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		class string
	}{
		{"validación", fmt.Errorf("%w: línea 2", domain.ErrInvalidQuantity), "validation"},
		{"stock", domain.ErrInsufficientStock, "insufficient_stock"},
		{"estado", domain.ErrInvalidStateTransition, "state"},
		{"referencia", domain.ErrUnknownReference, "validation"},
		{"interno", errors.New("disco lleno"), "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := &scriptedTx{errs: []error{tc.err}}
			metrics := &recordingMetrics{}
			c := appinv.NewCoordinator(tx, fastPolicy(3), nil, metrics)

			err := c.Execute(context.Background(), "commit", noop)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, 1, tx.calls)
			assert.Empty(t, metrics.retries)
			assert.Equal(t, []string{"commit:" + tc.class}, metrics.failures)
		})
	}
}

func TestCoordinator_RespetaCancelacionAntesDeEmpezar(t *testing.T) {
	tx := &scriptedTx{}
	c := appinv.NewCoordinator(tx, fastPolicy(3), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Execute(ctx, "commit", noop)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, tx.calls)
}

func TestCoordinator_IgnoraCancelacionDuranteElCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tx := &scriptedTx{}
	c := appinv.NewCoordinator(tx, fastPolicy(1), nil, nil)

	err := c.Execute(ctx, "commit", func(ctx context.Context, _ appinv.TxRepos) error {
		cancel()
		return ctx.Err()
	})
	assert.NoError(t, err, "la unidad en curso no ve la cancelación del llamador")
}

func TestCoordinator_TimeoutPorIntentoEsStorageTimeout(t *testing.T) {
	tx := &scriptedTx{}
	policy := fastPolicy(2)
	policy.StorageTimeout = 5 * time.Millisecond
	c := appinv.NewCoordinator(tx, policy, nil, nil)

	err := c.Execute(context.Background(), "commit", func(ctx context.Context, _ appinv.TxRepos) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, domain.ErrStorageTimeout)
	assert.Equal(t, 2, tx.calls)
}
