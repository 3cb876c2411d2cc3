package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/inventario-ledger/internal/application/auth"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/inventario-ledger/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// storage colaboradores de persistencia elegidos por STORAGE_DRIVER.
type storage struct {
	tx       inventory.TxRunner
	reads    inventory.TxRepos
	products repository.ProductRepository
	stores   repository.StoreRepository
	counter  repository.CodeCounterRepository
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Inventory.StorageDriver).
		Str("sequencer", cfg.Inventory.Sequencer).
		Msg("iniciando aplicación")

	ctx := context.Background()
	var st *storage
	if cfg.Inventory.StorageDriver == "memory" {
		st = memoryStorage(cfg.Seed, log)
	} else {
		st, err = postgresStorage(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar PostgreSQL")
		}
	}
	defer st.close()

	if cfg.Inventory.Sequencer == "redis" {
		client, err := infraredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		st.counter = infraredis.NewCodeCounter(client, "")
	}

	m := metrics.New()
	coord := inventory.NewCoordinator(st.tx, inventory.RetryPolicy{
		MaxAttempts:     cfg.Inventory.MaxAttempts,
		InitialInterval: cfg.Inventory.RetryInitial,
		MaxInterval:     cfg.Inventory.RetryMax,
		StorageTimeout:  cfg.Inventory.StorageTimeout,
	}, log, m)
	movementUC := inventory.NewMovementUseCase(coord, st.reads.Movements, st.products, st.stores,
		inventory.NewCodeSequencer(st.counter), log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Movements:   movementUC,
		Projector:   inventory.NewStockProjector(st.reads.Positions, st.reads.Ledger, st.stores, st.products),
		Ledger:      inventory.NewStockLedger(st.reads.Ledger, st.reads.Positions, st.stores, st.products, coord),
		Permissions: auth.DefaultMatrix(),
		Metrics:     m,
		Logger:      log,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func postgresStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &storage{
		tx:       postgres.NewTxRunner(pool, cfg.Inventory.Isolation),
		reads:    postgres.Repos(pool),
		products: postgres.NewProductRepository(pool),
		stores:   postgres.NewStoreRepository(pool),
		counter:  postgres.NewCounterRepository(pool),
		close:    pool.Close,
	}, nil
}

// memoryStorage solo para demos: el estado se pierde al reiniciar.
func memoryStorage(seed config.SeedConfig, log *logger.Logger) *storage {
	st := memory.NewStore()
	for _, id := range seed.Stores {
		st.AddStore(seed.CompanyID, id)
	}
	for _, id := range seed.Products {
		st.AddProduct(seed.CompanyID, id)
	}
	log.Warn().Int("stores", len(seed.Stores)).Int("products", len(seed.Products)).
		Msg("almacenamiento en memoria; los datos no son durables")
	return &storage{
		tx: st,
		reads: inventory.TxRepos{
			Ledger:    st.Ledger(),
			Positions: st.Positions(),
			Movements: st.Movements(),
		},
		products: st.Products(),
		stores:   st.Stores(),
		counter:  st.Counter(),
		close:    func() {},
	}
}
