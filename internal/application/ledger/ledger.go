// Package ledger implementa el ledger de stock y el motor de consumo FIFO:
// registros de entrada/salida por producto, stock actual derivado de los lotes
// pendientes y reversión exacta de salidas mediante sus asignaciones.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/jhoicas/stockledger-api/internal/application/ports"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Config parámetros del ledger.
type Config struct {
	MaxRetries      uint64        // reintentos ante ErrConcurrencyConflict
	RetryBase       time.Duration // backoff exponencial inicial
	CompanyStockTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 20 * time.Millisecond
	}
	if c.CompanyStockTTL <= 0 {
		c.CompanyStockTTL = 5 * time.Minute
	}
	return c
}

// RecordInput datos de un movimiento. CompanyID y RecordedBy llegan ya validados por el caller.
type RecordInput struct {
	CompanyID     string
	ProductID     string
	RecordedBy    string
	BoxQuantity   int64
	PieceQuantity int64
	Note          string
}

// Ledger casos de uso del ledger de stock.
type Ledger struct {
	txRunner TxRunner
	products repository.ProductRepository
	records  repository.StockRecordRepository
	cache    ports.CacheInvalidator
	metrics  ports.Metrics
	log      *logger.Logger
	cfg      Config
	now      func() time.Time
}

// NewLedger construye el ledger. metrics puede ser nil.
func NewLedger(
	txRunner TxRunner,
	products repository.ProductRepository,
	records repository.StockRecordRepository,
	cache ports.CacheInvalidator,
	metrics ports.Metrics,
	log *logger.Logger,
	cfg Config,
) *Ledger {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Ledger{
		txRunner: txRunner,
		products: products,
		records:  records,
		cache:    cache,
		metrics:  metrics,
		log:      log.Component("ledger"),
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func validateInput(in RecordInput) error {
	if in.CompanyID == "" || in.ProductID == "" || in.RecordedBy == "" {
		return domain.ErrInvalidInput
	}
	if in.BoxQuantity < 0 || in.PieceQuantity < 0 {
		return fmt.Errorf("%w: box=%d piece=%d", domain.ErrInvalidQuantity, in.BoxQuantity, in.PieceQuantity)
	}
	return nil
}

// RecordInbound registra un lote de entrada: consumed_quantity 0, record_date ahora y
// vencimiento = record_date + storage_months. Purga la caché de la empresa al confirmar.
func (l *Ledger) RecordInbound(ctx context.Context, in RecordInput) (*entity.StockRecord, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var rec *entity.StockRecord
	err := l.withRetry(ctx, func(ctx context.Context) error {
		return l.txRunner.Run(ctx, func(
			productRepo repository.ProductRepository,
			recordRepo repository.StockRecordRepository,
			_ repository.AllocationRepository,
		) error {
			product, err := lockProduct(ctx, productRepo, in.CompanyID, in.ProductID)
			if err != nil {
				return err
			}
			total, err := inventory.ToTotalPieces(in.BoxQuantity, in.PieceQuantity, product.PiecesPerBox)
			if err != nil {
				return err
			}

			now := l.now()
			exp := inventory.ExpirationDate(now, product.StorageMonths)
			rec = &entity.StockRecord{
				ID:             uuid.New().String(),
				ProductID:      product.ID,
				CompanyID:      product.CompanyID,
				RecordType:     entity.RecordTypeIn,
				BoxQuantity:    in.BoxQuantity,
				PieceQuantity:  in.PieceQuantity,
				TotalPieces:    total,
				RecordedBy:     in.RecordedBy,
				RecordDate:     now,
				ExpirationDate: &exp,
				Note:           in.Note,
				CreatedAt:      now,
			}
			if err := recordRepo.Create(ctx, rec); err != nil {
				return err
			}
			return touchStock(ctx, productRepo, recordRepo, product.ID, now)
		})
	})
	l.observe(entity.RecordTypeIn, err)
	if err != nil {
		return nil, err
	}

	l.invalidate(ctx, in.CompanyID)
	l.log.Info().
		Str("company_id", in.CompanyID).
		Str("product_id", in.ProductID).
		Str("record_id", rec.ID).
		Int64("total_pieces", rec.TotalPieces).
		Msg("entrada registrada")
	return rec, nil
}

// RecordOutbound crea el registro de salida y, en la misma transacción, consume los lotes
// de entrada en orden FIFO. Si el stock no alcanza devuelve domain.ErrInsufficientStock
// y no queda ni el registro ni ningún débito.
func (l *Ledger) RecordOutbound(ctx context.Context, in RecordInput) (*entity.StockRecord, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var rec *entity.StockRecord
	err := l.withRetry(ctx, func(ctx context.Context) error {
		return l.txRunner.Run(ctx, func(
			productRepo repository.ProductRepository,
			recordRepo repository.StockRecordRepository,
			allocationRepo repository.AllocationRepository,
		) error {
			product, err := lockProduct(ctx, productRepo, in.CompanyID, in.ProductID)
			if err != nil {
				return err
			}
			total, err := inventory.ToTotalPieces(in.BoxQuantity, in.PieceQuantity, product.PiecesPerBox)
			if err != nil {
				return err
			}

			now := l.now()
			rec = &entity.StockRecord{
				ID:            uuid.New().String(),
				ProductID:     product.ID,
				CompanyID:     product.CompanyID,
				RecordType:    entity.RecordTypeOut,
				BoxQuantity:   in.BoxQuantity,
				PieceQuantity: in.PieceQuantity,
				TotalPieces:   total,
				RecordedBy:    in.RecordedBy,
				RecordDate:    now,
				Note:          in.Note,
				CreatedAt:     now,
			}
			if err := recordRepo.Create(ctx, rec); err != nil {
				return err
			}
			if err := consume(ctx, recordRepo, allocationRepo, rec, now); err != nil {
				return err
			}
			return touchStock(ctx, productRepo, recordRepo, product.ID, now)
		})
	})
	l.observe(entity.RecordTypeOut, err)
	if err != nil {
		return nil, err
	}

	l.invalidate(ctx, in.CompanyID)
	l.log.Info().
		Str("company_id", in.CompanyID).
		Str("product_id", in.ProductID).
		Str("record_id", rec.ID).
		Int64("total_pieces", rec.TotalPieces).
		Msg("salida registrada")
	return rec, nil
}

// consume aplica el algoritmo FIFO sobre los lotes abiertos del producto y persiste
// todos los débitos en una sola escritura, junto con la procedencia de cada uno.
func consume(
	ctx context.Context,
	recordRepo repository.StockRecordRepository,
	allocationRepo repository.AllocationRepository,
	out *entity.StockRecord,
	now time.Time,
) error {
	if out.TotalPieces == 0 {
		return nil
	}
	lots, err := recordRepo.ListOpenLots(ctx, out.ProductID)
	if err != nil {
		return err
	}
	debits, err := inventory.AllocateFIFO(lots, out.TotalPieces)
	if err != nil {
		return err
	}
	if err := recordRepo.ConsumeLots(ctx, debits); err != nil {
		return err
	}

	allocations := make([]*entity.Allocation, 0, len(debits))
	for _, d := range debits {
		allocations = append(allocations, &entity.Allocation{
			ID:               uuid.New().String(),
			OutboundRecordID: out.ID,
			InboundRecordID:  d.LotID,
			Pieces:           d.Pieces,
			CreatedAt:        now,
		})
	}
	return allocationRepo.CreateBatch(ctx, allocations)
}

// ReverseRecord elimina un registro con su asiento compensatorio.
// Una salida devuelve sus piezas exactamente a los lotes de donde salieron.
// Una entrada solo se puede revertir si ninguna salida la ha consumido (domain.ErrConflict).
func (l *Ledger) ReverseRecord(ctx context.Context, companyID, recordID string) error {
	if companyID == "" || recordID == "" {
		return domain.ErrInvalidInput
	}
	err := l.withRetry(ctx, func(ctx context.Context) error {
		return l.txRunner.Run(ctx, func(
			productRepo repository.ProductRepository,
			recordRepo repository.StockRecordRepository,
			allocationRepo repository.AllocationRepository,
		) error {
			rec, err := recordRepo.GetByID(ctx, recordID)
			if err != nil {
				return err
			}
			if rec == nil || rec.CompanyID != companyID {
				return domain.ErrNotFound
			}
			if _, err := lockProduct(ctx, productRepo, companyID, rec.ProductID); err != nil {
				return err
			}

			if rec.IsInbound() {
				// Releer tras el bloqueo: otra salida pudo consumir el lote mientras esperábamos.
				fresh, err := recordRepo.GetByID(ctx, recordID)
				if err != nil {
					return err
				}
				if fresh == nil {
					return domain.ErrNotFound
				}
				if fresh.ConsumedQuantity > 0 {
					return fmt.Errorf("%w: el lote ya fue consumido (%d piezas)", domain.ErrConflict, fresh.ConsumedQuantity)
				}
			} else {
				allocations, err := allocationRepo.ListByOutbound(ctx, rec.ID)
				if err != nil {
					return err
				}
				debits := make([]inventory.Debit, 0, len(allocations))
				for _, a := range allocations {
					debits = append(debits, inventory.Debit{LotID: a.InboundRecordID, Pieces: a.Pieces})
				}
				if err := recordRepo.RestoreLots(ctx, debits); err != nil {
					return err
				}
				if err := allocationRepo.DeleteByOutbound(ctx, rec.ID); err != nil {
					return err
				}
			}
			if err := recordRepo.Delete(ctx, rec.ID); err != nil {
				return err
			}
			return touchStock(ctx, productRepo, recordRepo, rec.ProductID, l.now())
		})
	})
	if err != nil {
		return err
	}
	l.invalidate(ctx, companyID)
	l.log.Info().Str("company_id", companyID).Str("record_id", recordID).Msg("registro revertido")
	return nil
}

// CurrentStock Σ(total − consumido) de los lotes de entrada del producto.
// Nunca lee las salidas: su efecto ya está en consumed_quantity.
func (l *Ledger) CurrentStock(ctx context.Context, companyID, productID string) (entity.StockLevel, error) {
	product, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return entity.StockLevel{}, err
	}
	if product == nil || product.CompanyID != companyID {
		return entity.StockLevel{}, domain.ErrNotFound
	}
	total, err := l.records.SumOutstanding(ctx, productID)
	if err != nil {
		return entity.StockLevel{}, err
	}
	return inventory.Level(total, product.PiecesPerBox), nil
}

// CompanyStock stock total de la empresa en piezas. Se cachea bajo el namespace de la empresa.
func (l *Ledger) CompanyStock(ctx context.Context, companyID string) (int64, error) {
	if companyID == "" {
		return 0, domain.ErrInvalidInput
	}
	gen, err := l.cache.Generation(ctx, companyID)
	if err != nil {
		l.log.Warn().Err(err).Str("company_id", companyID).Msg("generación de caché no disponible, se recalcula")
		l.metrics.CacheLookup(false)
		return l.records.SumOutstandingByCompany(ctx, companyID)
	}
	key := ports.GenerationKey(companyID, gen, "stock")
	var cached int64
	if found, err := l.cache.Get(ctx, key, &cached); err == nil && found {
		l.metrics.CacheLookup(true)
		return cached, nil
	} else if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("lectura de caché fallida, se recalcula")
	}
	l.metrics.CacheLookup(false)

	total, err := l.records.SumOutstandingByCompany(ctx, companyID)
	if err != nil {
		return 0, err
	}
	if err := l.cache.Set(ctx, key, total, l.cfg.CompanyStockTTL); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("escritura de caché fallida")
	}
	return total, nil
}

// ListRecords historial de registros del producto, más recientes primero.
func (l *Ledger) ListRecords(ctx context.Context, companyID, productID string, limit, offset int) ([]*entity.StockRecord, error) {
	product, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return l.records.ListByProduct(ctx, productID, limit, offset)
}

// lockProduct bloquea el producto y verifica que pertenezca a la empresa.
func lockProduct(ctx context.Context, repo repository.ProductRepository, companyID, productID string) (*entity.Product, error) {
	product, err := repo.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

// touchStock recalcula el rollup de stock desde los lotes y sube la versión del producto.
func touchStock(ctx context.Context, productRepo repository.ProductRepository, recordRepo repository.StockRecordRepository, productID string, now time.Time) error {
	stock, err := recordRepo.SumOutstanding(ctx, productID)
	if err != nil {
		return err
	}
	if stock < 0 {
		return fmt.Errorf("stock negativo en producto %s: %d", productID, stock)
	}
	return productRepo.TouchStock(ctx, productID, stock, now)
}

// withRetry reintenta op con backoff exponencial mientras falle por conflicto de concurrencia.
// Agotados los reintentos devuelve el error original (sigue siendo ErrConcurrencyConflict).
func (l *Ledger) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	b := retry.NewExponential(l.cfg.RetryBase)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithMaxRetries(l.cfg.MaxRetries, b)
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			l.metrics.ConflictRetried()
			l.log.Warn().Err(err).Msg("conflicto de concurrencia, reintentando")
			return retry.RetryableError(err)
		}
		return err
	})
}

// invalidate purga la caché de la empresa. Un fallo aquí no deshace la escritura ya confirmada.
func (l *Ledger) invalidate(ctx context.Context, companyID string) {
	if err := l.cache.Invalidate(ctx, companyID); err != nil {
		l.log.Error().Err(err).Str("company_id", companyID).Msg("invalidar caché de la empresa")
	}
}

func (l *Ledger) observe(recordType string, err error) {
	switch {
	case err == nil:
		l.metrics.RecordWritten(recordType, ports.OutcomeOK)
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNotFound):
		l.metrics.RecordWritten(recordType, ports.OutcomeRejected)
	default:
		l.metrics.RecordWritten(recordType, ports.OutcomeError)
	}
}
