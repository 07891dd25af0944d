// Package snapshot contiene el job diario que materializa snapshots de stock por producto
// y recalcula los rollups de tendencia (promedio de 30 días y variación).
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stockledger-api/internal/application/ports"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// ErrAlreadyRunning otra réplica ya está procesando la misma fecha.
var ErrAlreadyRunning = errors.New("snapshot: job ya en ejecución")

// StockReader fuente del stock actual (el ledger).
type StockReader interface {
	CurrentStock(ctx context.Context, companyID, productID string) (entity.StockLevel, error)
}

// JobLock candado distribuido para que el job corra una sola vez por fecha.
// Acquire devuelve ErrAlreadyRunning si el candado está tomado.
type JobLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// Config parámetros del agregador.
type Config struct {
	Concurrency   int // productos procesados en paralelo
	PageSize      int
	AvgWindowFrom int // días hacia atrás donde empieza la ventana del promedio (60)
	AvgWindowTo   int // días hacia atrás donde termina (30)
	RetentionDays int // 180
	LockTTL       time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.PageSize <= 0 {
		c.PageSize = 500
	}
	if c.AvgWindowFrom <= 0 {
		c.AvgWindowFrom = 60
	}
	if c.AvgWindowTo <= 0 {
		c.AvgWindowTo = 30
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = 180
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 30 * time.Minute
	}
	return c
}

// ProductFailure fallo aislado de un producto dentro del lote.
type ProductFailure struct {
	CompanyID string `json:"company_id"`
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

// JobReport resultado del job. Con fallos el éxito es parcial, nunca se aborta el lote.
type JobReport struct {
	Date      time.Time        `json:"date"`
	Companies int              `json:"companies"`
	Processed int              `json:"processed"`
	Succeeded int              `json:"succeeded"`
	Failures  []ProductFailure `json:"failures"`
	Duration  time.Duration    `json:"duration"`
}

// Partial indica si algún producto falló.
func (r *JobReport) Partial() bool { return len(r.Failures) > 0 }

// Aggregator job diario de snapshots y tendencias.
type Aggregator struct {
	companies repository.CompanyRepository
	products  repository.ProductRepository
	snapshots repository.SnapshotRepository
	stock     StockReader
	cache     ports.CacheInvalidator
	lock      JobLock
	metrics   ports.Metrics
	log       *logger.Logger
	cfg       Config
	now       func() time.Time
}

// NewAggregator construye el agregador. lock y metrics pueden ser nil.
func NewAggregator(
	companies repository.CompanyRepository,
	products repository.ProductRepository,
	snapshots repository.SnapshotRepository,
	stock StockReader,
	cache ports.CacheInvalidator,
	lock JobLock,
	metrics ports.Metrics,
	log *logger.Logger,
	cfg Config,
) *Aggregator {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Aggregator{
		companies: companies,
		products:  products,
		snapshots: snapshots,
		stock:     stock,
		cache:     cache,
		lock:      lock,
		metrics:   metrics,
		log:       log.Component("snapshot"),
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

// Day trunca t a la fecha de calendario en su propia zona horaria, expresada en UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RunDaily recorre todas las empresas y sus productos: upsert del snapshot de hoy,
// promedio de la ventana [hoy−60, hoy−30] y variación. Es idempotente para una misma fecha.
func (a *Aggregator) RunDaily(ctx context.Context, today time.Time) (*JobReport, error) {
	date := Day(today)
	return a.run(ctx, date, "snapshot:daily:"+date.Format("2006-01-02"), func(ctx context.Context) ([]string, error) {
		ids, err := a.companies.ListIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("listar empresas: %w", err)
		}
		return ids, nil
	})
}

// RunCompany mismo proceso que RunDaily limitado a una empresa (disparo manual).
func (a *Aggregator) RunCompany(ctx context.Context, companyID string, today time.Time) (*JobReport, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidInput
	}
	date := Day(today)
	return a.run(ctx, date, "snapshot:company:"+companyID+":"+date.Format("2006-01-02"), func(context.Context) ([]string, error) {
		return []string{companyID}, nil
	})
}

func (a *Aggregator) run(ctx context.Context, date time.Time, lockKey string, companies func(context.Context) ([]string, error)) (*JobReport, error) {
	started := a.now()

	if a.lock != nil {
		release, err := a.lock.Acquire(ctx, lockKey, a.cfg.LockTTL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				a.log.Warn().Err(err).Msg("liberar candado del job")
			}
		}()
	}

	companyIDs, err := companies(ctx)
	if err != nil {
		return nil, err
	}

	report := &JobReport{Date: date, Companies: len(companyIDs)}
	var mu sync.Mutex
	record := func(p *entity.Product, err error) {
		mu.Lock()
		defer mu.Unlock()
		report.Processed++
		if err == nil {
			report.Succeeded++
			a.metrics.SnapshotProcessed(ports.OutcomeOK)
			return
		}
		a.metrics.SnapshotProcessed(ports.OutcomeError)
		report.Failures = append(report.Failures, ProductFailure{CompanyID: p.CompanyID, ProductID: p.ID, Error: err.Error()})
		a.log.Error().Err(err).
			Str("company_id", p.CompanyID).
			Str("product_id", p.ID).
			Msg("snapshot de producto fallido, se continúa con el resto")
	}

	for _, companyID := range companyIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := a.runCompany(ctx, companyID, date, record); err != nil {
			// Sin poder listar productos la empresa entera queda fuera; las demás siguen.
			a.log.Error().Err(err).Str("company_id", companyID).Msg("listar productos de la empresa")
			report.Failures = append(report.Failures, ProductFailure{CompanyID: companyID, Error: err.Error()})
			continue
		}
		if err := a.cache.Invalidate(ctx, companyID); err != nil {
			a.log.Warn().Err(err).Str("company_id", companyID).Msg("invalidar caché tras snapshots")
		}
	}

	report.Duration = a.now().Sub(started)
	a.log.Info().
		Time("date", date).
		Int("companies", report.Companies).
		Int("processed", report.Processed).
		Int("succeeded", report.Succeeded).
		Int("failed", len(report.Failures)).
		Dur("duration", report.Duration).
		Msg("job de snapshots terminado")
	return report, nil
}

func (a *Aggregator) runCompany(ctx context.Context, companyID string, date time.Time, record func(*entity.Product, error)) error {
	g := new(errgroup.Group)
	g.SetLimit(a.cfg.Concurrency)

	for offset := 0; ; offset += a.cfg.PageSize {
		page, err := a.products.ListByCompany(ctx, companyID, a.cfg.PageSize, offset)
		if err != nil {
			_ = g.Wait()
			return err
		}
		for _, p := range page {
			g.Go(func() error {
				record(p, a.snapshotProduct(ctx, p, date))
				return nil
			})
		}
		if len(page) < a.cfg.PageSize {
			break
		}
	}
	return g.Wait()
}

// snapshotProduct procesa un producto. Un pánico se convierte en error para no tumbar el lote.
func (a *Aggregator) snapshotProduct(ctx context.Context, p *entity.Product, date time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: pánico: %v", domain.ErrSnapshotComputationFailed, r)
		}
	}()

	level, err := a.stock.CurrentStock(ctx, p.CompanyID, p.ID)
	if err != nil {
		return fmt.Errorf("%w: stock actual: %v", domain.ErrSnapshotComputationFailed, err)
	}

	snap := &entity.StockSnapshot{
		ID:            uuid.New().String(),
		CompanyID:     p.CompanyID,
		ProductID:     p.ID,
		SnapshotDate:  date,
		BoxQuantity:   level.BoxQuantity,
		PieceQuantity: level.PieceQuantity,
		TotalPieces:   level.TotalPieces,
		CreatedAt:     a.now(),
	}
	if err := a.snapshots.Upsert(ctx, snap); err != nil {
		return fmt.Errorf("%w: guardar snapshot: %v", domain.ErrSnapshotComputationFailed, err)
	}

	from := date.AddDate(0, 0, -a.cfg.AvgWindowFrom)
	to := date.AddDate(0, 0, -a.cfg.AvgWindowTo)
	totals, err := a.snapshots.ListTotalsInRange(ctx, p.ID, from, to)
	if err != nil {
		return fmt.Errorf("%w: ventana de promedio: %v", domain.ErrSnapshotComputationFailed, err)
	}
	avg := inventory.AverageStock(totals)

	rollup := entity.ProductRollup{
		ProductID:          p.ID,
		AvgLast30DaysStock: avg,
		Variation:          inventory.Variation(level.TotalPieces, avg),
	}
	if err := a.products.UpdateRollup(ctx, rollup, a.now()); err != nil {
		return fmt.Errorf("%w: actualizar rollup: %v", domain.ErrSnapshotComputationFailed, err)
	}
	return nil
}

// PurgeExpired borra los snapshots con más de RetentionDays días. Solo retención, sin recálculo.
func (a *Aggregator) PurgeExpired(ctx context.Context, today time.Time) (int64, error) {
	cutoff := Day(today).AddDate(0, 0, -a.cfg.RetentionDays)
	n, err := a.snapshots.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purgar snapshots: %w", err)
	}
	a.log.Info().Time("cutoff", cutoff).Int64("deleted", n).Msg("snapshots antiguos purgados")
	return n, nil
}
