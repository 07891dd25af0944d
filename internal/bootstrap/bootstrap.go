// Package bootstrap arma las dependencias compartidas por cmd/api y cmd/worker
// según la configuración: almacenamiento, caché, candado del job, métricas y despacho.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/notify"
	"github.com/jhoicas/stockledger-api/internal/application/ports"
	"github.com/jhoicas/stockledger-api/internal/application/reporting"
	"github.com/jhoicas/stockledger-api/internal/application/snapshot"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/metrics"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/queue"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Storage repositorios de un backend concreto.
type Storage struct {
	Companies     repository.CompanyRepository
	Memberships   repository.MembershipRepository
	Products      repository.ProductRepository
	Records       repository.StockRecordRepository
	Snapshots     repository.SnapshotRepository
	Notifications repository.NotificationRepository
	Reports       repository.ReportRepository
	TxRunner      ledger.TxRunner
	Close         func()
}

// OpenStorage conecta PostgreSQL (aplicando migraciones) o crea el almacén en memoria.
func OpenStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Storage, error) {
	if cfg.App.Storage == config.StorageMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &Storage{
			Companies:     memory.NewCompanyRepository(store),
			Memberships:   memory.NewMembershipRepository(store),
			Products:      memory.NewProductRepository(store),
			Records:       memory.NewStockRecordRepository(store),
			Snapshots:     memory.NewSnapshotRepository(store),
			Notifications: memory.NewNotificationRepository(store),
			Reports:       memory.NewReportRepository(store),
			TxRunner:      memory.NewTxRunner(store),
			Close:         func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Storage{
		Companies:     postgres.NewCompanyRepository(pool),
		Memberships:   postgres.NewMembershipRepository(pool),
		Products:      postgres.NewProductRepository(pool),
		Records:       postgres.NewStockRecordRepository(pool),
		Snapshots:     postgres.NewSnapshotRepository(pool),
		Notifications: postgres.NewNotificationRepository(pool),
		Reports:       postgres.NewReportRepository(pool),
		TxRunner:      postgres.NewTxRunner(pool, cfg.DB.LockTimeout),
		Close:         pool.Close,
	}, nil
}

// Cache caché de agregados y candado del job. Con REDIS_ADDR vacío ambos viven en proceso.
type Cache struct {
	Cache ports.CacheInvalidator
	Lock  snapshot.JobLock
	Close func()
}

// OpenCache conecta Redis o recurre a la caché LRU local.
func OpenCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Cache, error) {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("sin REDIS_ADDR: caché y candado en proceso")
		return &Cache{
			Cache: cache.NewLocalCache(cfg.Cache.LocalSize, cfg.Cache.FlowTTL),
			Lock:  cache.NewLocalJobLock(),
			Close: func() {},
		}, nil
	}
	rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	return &Cache{
		Cache: cache.NewRedisCache(rdb),
		Lock:  cache.NewRedisJobLock(rdb),
		Close: func() { _ = rdb.Close() },
	}, nil
}

// Services servicios de aplicación comunes a la API y al worker.
type Services struct {
	Metrics    *metrics.Prometheus
	Ledger     *ledger.Ledger
	Reports    *reporting.Service
	Snapshots  *snapshot.Aggregator
	Notify     *notify.Handler
	Dispatcher notify.Dispatcher
	Close      func()
}

// NewServices construye los servicios sobre el almacenamiento y la caché dados.
// Con AMQP_URL definido el despacho va por la cola con respaldo en línea tras el breaker.
func NewServices(cfg *config.Config, st *Storage, c *Cache, log *logger.Logger) *Services {
	m := metrics.New()
	l := ledger.NewLedger(st.TxRunner, st.Products, st.Records, c.Cache, m, log, ledger.Config{
		MaxRetries:      uint64(cfg.Ledger.MaxRetries),
		RetryBase:       cfg.Ledger.RetryBase,
		CompanyStockTTL: cfg.Ledger.CompanyStockTTL,
	})
	reports := reporting.NewService(st.Reports, l, c.Cache, m, log, reporting.Config{
		FlowTTL:  cfg.Cache.FlowTTL,
		ListTTL:  cfg.Cache.ListTTL,
		Location: cfg.App.Location(),
	})
	agg := snapshot.NewAggregator(st.Companies, st.Products, st.Snapshots, l, c.Cache, c.Lock, m, log, snapshot.Config{
		Concurrency:   cfg.Snapshot.Concurrency,
		RetentionDays: cfg.Snapshot.RetentionDays,
		LockTTL:       cfg.Snapshot.LockTTL,
	})
	handler := notify.NewHandler(st.Memberships, st.Notifications, log)
	inline := notify.NewInlineDispatcher(handler)

	s := &Services{
		Metrics:    m,
		Ledger:     l,
		Reports:    reports,
		Snapshots:  agg,
		Notify:     handler,
		Dispatcher: inline,
		Close:      func() {},
	}
	if cfg.AMQP.URL == "" {
		log.Info().Msg("sin AMQP_URL: notificaciones en línea")
		return s
	}
	pub, err := queue.NewPublisher(amqpConfig(cfg))
	if err != nil {
		// La cola caída no impide arrancar: el breaker queda con la ruta en línea.
		log.Error().Err(err).Msg("no se pudo conectar a RabbitMQ, notificaciones en línea")
		return s
	}
	s.Dispatcher = notify.NewBreakerDispatcher(notify.NewQueuedDispatcher(pub), inline, m, log, notify.BreakerConfig{})
	s.Close = func() { _ = pub.Close() }
	return s
}

// NewConsumer consumidor de la cola de notificaciones del worker.
func NewConsumer(cfg *config.Config, log *logger.Logger) (*queue.Consumer, error) {
	return queue.NewConsumer(amqpConfig(cfg), log)
}

func amqpConfig(cfg *config.Config) queue.Config {
	return queue.Config{
		URL:            cfg.AMQP.URL,
		Exchange:       cfg.AMQP.Exchange,
		Queue:          cfg.AMQP.Queue,
		Prefetch:       cfg.AMQP.Prefetch,
		ConfirmTimeout: cfg.AMQP.ConfirmTimeout,
	}
}
