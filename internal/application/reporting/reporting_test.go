package reporting_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/ports"
	"github.com/jhoicas/stockledger-api/internal/application/reporting"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// miércoles; la semana empieza el lunes 2024-06-03.
var wednesday = time.Date(2024, 6, 5, 15, 0, 0, 0, time.UTC)

type spyMetrics struct {
	ports.NopMetrics
	mu           sync.Mutex
	hits, misses int
}

func (m *spyMetrics) CacheLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

type brokenCache struct{}

func (brokenCache) Invalidate(context.Context, string) error { return nil }
func (brokenCache) Generation(context.Context, string) (int64, error) {
	return 0, errors.New("redis: connection refused")
}
func (brokenCache) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("redis: connection refused")
}
func (brokenCache) Set(context.Context, string, any, time.Duration) error {
	return errors.New("redis: connection refused")
}

// racingCache ejecuta write una vez, justo antes del primer Set: la escritura del ledger
// y su invalidación caen entre el cálculo del lector y el guardado en caché.
type racingCache struct {
	ports.CacheInvalidator
	write func()
	done  bool
}

func (c *racingCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.done {
		c.done = true
		c.write()
	}
	return c.CacheInvalidator.Set(ctx, key, value, ttl)
}

type fixture struct {
	store     *memory.Store
	products  *memory.ProductRepo
	snapshots *memory.SnapshotRepo
	ledger    *ledger.Ledger
	service   *reporting.Service
	metrics   *spyMetrics
	clock     time.Time
}

func newFixture(t *testing.T, c ports.CacheInvalidator) *fixture {
	t.Helper()
	if c == nil {
		c = cache.NewLocalCache(1000, time.Hour)
	}
	store := memory.NewStore()
	f := &fixture{
		store:     store,
		products:  memory.NewProductRepository(store),
		snapshots: memory.NewSnapshotRepository(store),
		metrics:   &spyMetrics{},
		clock:     wednesday,
	}
	now := func() time.Time { return f.clock }
	f.ledger = ledger.NewLedger(memory.NewTxRunner(store), f.products, memory.NewStockRecordRepository(store),
		c, nil, logger.Nop(), ledger.Config{}).WithClock(now)
	f.service = reporting.NewService(memory.NewReportRepository(store), f.ledger, c, f.metrics,
		logger.Nop(), reporting.Config{}).WithClock(now)
	return f
}

func (f *fixture) product(t *testing.T, companyID, id, category string) {
	t.Helper()
	require.NoError(t, f.products.Create(context.Background(), &entity.Product{
		ID: id, CompanyID: companyID, Name: id, Category: category, Unit: entity.UnitCount,
		PiecesPerBox: 10, StorageMonths: 6, CreatedAt: f.clock,
	}))
}

func (f *fixture) in(t *testing.T, companyID, productID string, at time.Time, pieces int64) {
	t.Helper()
	f.clock = at
	_, err := f.ledger.RecordInbound(context.Background(), ledger.RecordInput{
		CompanyID: companyID, ProductID: productID, RecordedBy: "u", PieceQuantity: pieces,
	})
	require.NoError(t, err)
	f.clock = wednesday
}

func (f *fixture) out(t *testing.T, companyID, productID string, at time.Time, pieces int64) {
	t.Helper()
	f.clock = at
	_, err := f.ledger.RecordOutbound(context.Background(), ledger.RecordInput{
		CompanyID: companyID, ProductID: productID, RecordedBy: "u", PieceQuantity: pieces,
	})
	require.NoError(t, err)
	f.clock = wednesday
}

func day(d int) time.Time { return time.Date(2024, 6, d, 9, 0, 0, 0, time.UTC) }

// ──────────────────────────────────────────────────────────────────────────────
// WeeklyFlow
// ──────────────────────────────────────────────────────────────────────────────

func TestWeekStart_EsLunes(t *testing.T) {
	assert.Equal(t, "2024-06-03", reporting.WeekStart(wednesday, time.UTC).Format("2006-01-02"))
	assert.Equal(t, "2024-06-03", reporting.WeekStart(day(3), time.UTC).Format("2006-01-02"))
	assert.Equal(t, "2024-06-03", reporting.WeekStart(day(9), time.UTC).Format("2006-01-02"), "domingo cierra la semana")
}

func TestWeekStart_EnZonaDelNegocio(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	// Domingo 2024-06-09 16:00Z es lunes 2024-06-10 01:00 en Seúl.
	start := reporting.WeekStart(time.Date(2024, 6, 9, 16, 0, 0, 0, time.UTC), seoul)
	assert.Equal(t, "2024-06-10", start.Format("2006-01-02"))
	assert.Equal(t, time.Date(2024, 6, 9, 15, 0, 0, 0, time.UTC), start.UTC(), "medianoche local")
}

func TestWeeklyFlow_DiasCalendarioEnZonaDelNegocio(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	f := newFixture(t, nil)
	f.service = reporting.NewService(memory.NewReportRepository(f.store), f.ledger, cache.NewLocalCache(100, time.Hour),
		nil, logger.Nop(), reporting.Config{Location: seoul}).WithClock(func() time.Time { return f.clock })
	f.product(t, "c1", "p1", "a")
	// Domingo 23:30Z en UTC, lunes 08:30 en Seúl: cuenta en la semana del 2024-06-03.
	f.in(t, "c1", "p1", time.Date(2024, 6, 2, 23, 30, 0, 0, time.UTC), 10)
	// Lunes 23:00Z es martes 08:00 en Seúl.
	f.in(t, "c1", "p1", time.Date(2024, 6, 3, 23, 0, 0, 0, time.UTC), 4)
	// Domingo 2024-06-09 15:30Z es lunes de la semana siguiente en Seúl.
	f.in(t, "c1", "p1", time.Date(2024, 6, 9, 15, 30, 0, 0, time.UTC), 99)
	ctx := context.Background()
	// Snapshot con fecha de Seúl 2024-06-06; el reloj está en 2024-06-05 16:00Z (06-06 01:00 en Seúl).
	require.NoError(t, f.snapshots.Upsert(ctx, &entity.StockSnapshot{
		ID: "s1", CompanyID: "c1", ProductID: "p1",
		SnapshotDate: time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC), TotalPieces: 14,
	}))
	f.clock = time.Date(2024, 6, 5, 16, 0, 0, 0, time.UTC)

	flow, err := f.service.WeeklyFlow(ctx, "c1", f.clock)
	require.NoError(t, err)

	assert.Equal(t, "2024-06-03", flow.WeekStart)
	assert.Equal(t, reporting.DayFlow{Date: "2024-06-03", In: 10}, flow.Days[0])
	assert.Equal(t, reporting.DayFlow{Date: "2024-06-04", In: 4}, flow.Days[1])
	assert.Equal(t, reporting.DayFlow{Date: "2024-06-09"}, flow.Days[6])
	assert.Equal(t, int64(14), flow.TotalStock, "incluye el snapshot de hoy en Seúl")
	assert.Equal(t, reporting.SourceSnapshot, flow.StockSource)
}

func TestWeeklyFlow_SinSnapshotsUsaStockVivo(t *testing.T) {
	f := newFixture(t, nil)
	f.product(t, "c1", "p1", "a")
	f.in(t, "c1", "p1", day(2), 10) // domingo de la semana anterior
	f.in(t, "c1", "p1", day(4), 50)
	f.out(t, "c1", "p1", day(5), 20)

	flow, err := f.service.WeeklyFlow(context.Background(), "c1", wednesday)
	require.NoError(t, err)

	assert.Equal(t, "2024-06-03", flow.WeekStart)
	require.Len(t, flow.Days, 7)
	assert.Equal(t, reporting.DayFlow{Date: "2024-06-03"}, flow.Days[0])
	assert.Equal(t, reporting.DayFlow{Date: "2024-06-04", In: 50}, flow.Days[1])
	assert.Equal(t, reporting.DayFlow{Date: "2024-06-05", Out: 20}, flow.Days[2])
	assert.Equal(t, "2024-06-09", flow.Days[6].Date)
	assert.Equal(t, int64(40), flow.TotalStock)
	assert.Equal(t, reporting.SourceLive, flow.StockSource)
}

func TestWeeklyFlow_UsaUltimoSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	f.product(t, "c1", "p1", "a")
	f.product(t, "c1", "p2", "a")
	ctx := context.Background()
	for _, s := range []*entity.StockSnapshot{
		{ID: "s1", CompanyID: "c1", ProductID: "p1", SnapshotDate: day(3), TotalPieces: 5},
		{ID: "s2", CompanyID: "c1", ProductID: "p1", SnapshotDate: day(4), TotalPieces: 70},
		{ID: "s3", CompanyID: "c1", ProductID: "p2", SnapshotDate: day(4), TotalPieces: 7},
		{ID: "s4", CompanyID: "c1", ProductID: "p1", SnapshotDate: day(6), TotalPieces: 999}, // futuro
	} {
		require.NoError(t, f.snapshots.Upsert(ctx, s))
	}

	flow, err := f.service.WeeklyFlow(ctx, "c1", wednesday)
	require.NoError(t, err)
	assert.Equal(t, int64(77), flow.TotalStock)
	assert.Equal(t, reporting.SourceSnapshot, flow.StockSource)
}

func TestWeeklyFlow_CacheHastaQueElLedgerInvalida(t *testing.T) {
	f := newFixture(t, nil)
	f.product(t, "c1", "p1", "a")
	f.in(t, "c1", "p1", day(4), 50)
	ctx := context.Background()

	first, err := f.service.WeeklyFlow(ctx, "c1", wednesday)
	require.NoError(t, err)
	second, err := f.service.WeeklyFlow(ctx, "c1", day(7))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.metrics.hits)

	f.out(t, "c1", "p1", day(5), 5)
	third, err := f.service.WeeklyFlow(ctx, "c1", wednesday)
	require.NoError(t, err)
	assert.Equal(t, int64(5), third.Days[2].Out, "la escritura purgó la caché")
	assert.Equal(t, int64(45), third.TotalStock)
}

func TestWeeklyFlow_CacheCaidaCalculaEnVivo(t *testing.T) {
	f := newFixture(t, brokenCache{})
	f.product(t, "c1", "p1", "a")
	f.in(t, "c1", "p1", day(4), 12)

	flow, err := f.service.WeeklyFlow(context.Background(), "c1", wednesday)
	require.NoError(t, err)
	assert.Equal(t, int64(12), flow.Days[1].In)
	assert.Equal(t, 1, f.metrics.misses)
}

// ──────────────────────────────────────────────────────────────────────────────
// CategoryComposition
// ──────────────────────────────────────────────────────────────────────────────

func TestCategoryComposition_LectorLentoNoDejaAgregadoViejo(t *testing.T) {
	racing := &racingCache{CacheInvalidator: cache.NewLocalCache(1000, time.Hour)}
	f := newFixture(t, racing)
	f.product(t, "c1", "p1", "a")
	f.in(t, "c1", "p1", day(4), 10)
	racing.write = func() { f.in(t, "c1", "p1", day(5), 5) }
	ctx := context.Background()

	stale, err := f.service.CategoryComposition(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, int64(10), stale[0].TotalPieces, "calculado antes de la escritura")

	fresh, err := f.service.CategoryComposition(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, int64(15), fresh[0].TotalPieces, "el valor viejo quedó bajo una generación anterior")
}

func TestCategoryComposition_Porcentajes(t *testing.T) {
	f := newFixture(t, nil)
	f.product(t, "c1", "p1", "bebidas")
	f.product(t, "c1", "p2", "bebidas")
	f.product(t, "c1", "p3", "limpieza")
	f.in(t, "c1", "p1", day(3), 20)
	f.in(t, "c1", "p2", day(3), 40)
	f.in(t, "c1", "p3", day(3), 20)
	f.out(t, "c1", "p2", day(4), 30)

	shares, err := f.service.CategoryComposition(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, shares, 2)

	assert.Equal(t, "bebidas", shares[0].Category)
	assert.Equal(t, 2, shares[0].ProductCount)
	assert.Equal(t, int64(30), shares[0].TotalPieces)
	assert.True(t, decimal.NewFromFloat(60).Equal(shares[0].Percentage), "pct=%s", shares[0].Percentage)
	assert.True(t, decimal.NewFromFloat(40).Equal(shares[1].Percentage), "pct=%s", shares[1].Percentage)
}

func TestCategoryComposition_SinStockPorcentajeCero(t *testing.T) {
	f := newFixture(t, nil)
	f.product(t, "c1", "p1", "a")

	shares, err := f.service.CategoryComposition(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.True(t, shares[0].Percentage.IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// ProductList
// ──────────────────────────────────────────────────────────────────────────────

func TestProductList_FiltroDesconocido(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.service.ProductList(context.Background(), "c1", "interested", 1, 20)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductList_PaginacionPorDefectoYMaximo(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 25; i++ {
		f.product(t, "c1", fmt.Sprintf("p%02d", i), "a")
	}
	ctx := context.Background()

	page, err := f.service.ProductList(ctx, "c1", "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, repository.FilterAll, page.FilterType)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 25, page.Total)
	assert.Len(t, page.Items, 20)

	page, err = f.service.ProductList(ctx, "c1", repository.FilterAll, 2, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)

	page, err = f.service.ProductList(ctx, "c1", repository.FilterAll, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 100, page.PageSize)
}

func TestProductList_EscasezYSinMovimiento(t *testing.T) {
	f := newFixture(t, nil)
	f.product(t, "c1", "lleno", "a")
	f.product(t, "c1", "escaso", "a")
	f.in(t, "c1", "lleno", day(1), 150)
	f.in(t, "c1", "escaso", day(1), 99)
	f.out(t, "c1", "lleno", day(4), 1)
	ctx := context.Background()

	shortage, err := f.service.ProductList(ctx, "c1", repository.FilterShortage, 1, 20)
	require.NoError(t, err)
	require.Len(t, shortage.Items, 1)
	assert.Equal(t, "escaso", shortage.Items[0].ID)
	assert.Equal(t, int64(99), shortage.Items[0].Stock)

	unpopular, err := f.service.ProductList(ctx, "c1", repository.FilterUnpopular, 1, 20)
	require.NoError(t, err)
	require.Len(t, unpopular.Items, 1)
	assert.Equal(t, "escaso", unpopular.Items[0].ID)
}

func TestExportProducts_SinPaginar(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 30; i++ {
		f.product(t, "c1", fmt.Sprintf("p%02d", i), "a")
	}
	rows, err := f.service.ExportProducts(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Len(t, rows, 30)
}
