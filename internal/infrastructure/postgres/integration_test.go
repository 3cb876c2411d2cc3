//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	appinv "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

const (
	company = "empresa-1"
	user    = "usuario-1"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("inventario"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(pool))
	require.NoError(t, postgres.NewStoreRepository(pool).Upsert(ctx, company, "tienda-a", "Centro"))
	require.NoError(t, postgres.NewStoreRepository(pool).Upsert(ctx, company, "tienda-b", "Norte"))
	require.NoError(t, postgres.NewProductRepository(pool).Upsert(ctx, company, "p1", "SKU-1", "Arroz"))
	return pool
}

type service struct {
	movements *appinv.MovementUseCase
	ledger    *appinv.StockLedger
	projector *appinv.StockProjector
}

func newService(pool *pgxpool.Pool) service {
	reads := postgres.Repos(pool)
	policy := appinv.RetryPolicy{MaxAttempts: 5, InitialInterval: 5 * time.Millisecond, MaxInterval: 50 * time.Millisecond, StorageTimeout: 10 * time.Second}
	coord := appinv.NewCoordinator(postgres.NewTxRunner(pool, "serializable"), policy, nil, nil)
	seq := appinv.NewCodeSequencer(postgres.NewCounterRepository(pool))
	return service{
		movements: appinv.NewMovementUseCase(coord, reads.Movements, postgres.NewProductRepository(pool),
			postgres.NewStoreRepository(pool), seq, nil),
		ledger:    appinv.NewStockLedger(reads.Ledger, reads.Positions, postgres.NewStoreRepository(pool), postgres.NewProductRepository(pool), coord),
		projector: appinv.NewStockProjector(reads.Positions, reads.Ledger, postgres.NewStoreRepository(pool), postgres.NewProductRepository(pool)),
	}
}

func line(qty string) []entity.MovementLine {
	return []entity.MovementLine{{LineNo: 1, ProductID: "p1", Quantity: decimal.RequireFromString(qty), UnitValue: decimal.NewFromInt(1)}}
}

func post(t *testing.T, s service, typ entity.MovementType, store, qty string) *entity.Movement {
	t.Helper()
	ctx := context.Background()
	m, err := s.movements.CreateDraft(ctx, appinv.CreateMovementInput{
		CompanyID: company, UserID: user, Type: typ, StoreID: store,
		TotalAmount: decimal.RequireFromString(qty), Lines: line(qty),
	})
	require.NoError(t, err)
	posted, err := s.movements.Commit(ctx, company, user, m.ID)
	require.NoError(t, err)
	return posted
}

func TestPostgres_FlujoCompleto(t *testing.T) {
	pool := startPostgres(t)
	s := newService(pool)
	ctx := context.Background()

	post(t, s, entity.MovementTypeReceipt, "tienda-a", "10")

	ids := make([]string, 2)
	for i := range ids {
		m, err := s.movements.CreateDraft(ctx, appinv.CreateMovementInput{
			CompanyID: company, UserID: user, Type: entity.MovementTypeIssue, StoreID: "tienda-a",
			TotalAmount: decimal.NewFromInt(6), Lines: line("6"),
		})
		require.NoError(t, err)
		ids[i] = m.ID
	}
	var ok, insufficient atomic.Int32
	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := s.movements.Commit(ctx, company, user, id)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(1), insufficient.Load())

	tr, err := s.movements.CreateDraft(ctx, appinv.CreateMovementInput{
		CompanyID: company, UserID: user, Type: entity.MovementTypeTransfer,
		OriginStoreID: "tienda-a", DestinationStoreID: "tienda-b",
		TotalAmount: decimal.NewFromInt(3), Lines: line("3"),
	})
	require.NoError(t, err)
	_, err = s.movements.Send(ctx, company, user, tr.ID)
	require.NoError(t, err)
	_, err = s.movements.Receive(ctx, company, user, tr.ID)
	require.NoError(t, err)

	for _, store := range []string{"tienda-a", "tienda-b"} {
		audit, err := s.ledger.Verify(ctx, company, store, "p1")
		require.NoError(t, err)
		assert.True(t, audit.Diff.Consistent(), "tienda %s: %+v", store, audit.Diff)
	}
	a, err := s.projector.Position(ctx, company, "tienda-a", "p1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1).Equal(a.Available))
	assert.True(t, a.InTransit.IsZero())

	kardex, err := s.projector.Kardex(ctx, company, entity.KardexFilter{ProductID: "p1", StoreID: "tienda-a"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1).Equal(kardex.Closing))
}

func TestPostgres_LibroEsAppendOnly(t *testing.T) {
	pool := startPostgres(t)
	s := newService(pool)
	post(t, s, entity.MovementTypeReceipt, "tienda-a", "2")

	_, err := pool.Exec(context.Background(), `UPDATE stock_ledger SET quantity_delta = 100`)
	assert.Error(t, err)
	_, err = pool.Exec(context.Background(), `DELETE FROM stock_ledger`)
	assert.Error(t, err)
}

func TestPostgres_ContadorSinDuplicados(t *testing.T) {
	pool := startPostgres(t)
	counter := postgres.NewCounterRepository(pool)
	const n = 40
	seen := make([]int64, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			v, err := counter.Next(context.Background(), "SAL", "202610")
			seen[i] = v
			return err
		})
	}
	require.NoError(t, g.Wait())
	unique := make(map[int64]bool, n)
	for _, v := range seen {
		unique[v] = true
	}
	assert.Len(t, unique, n)
}
