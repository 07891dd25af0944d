// Package reporting expone las vistas de solo lectura sobre el ledger y los
// snapshots: flujo semanal, composición por categoría y listados filtrados.
// Sirve desde caché y recalcula en vivo ante un fallo.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/ports"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

const dateLayout = "2006-01-02"

// Orígenes del total de stock del flujo semanal.
const (
	SourceSnapshot = "snapshot"
	SourceLive     = "live"
)

// Config parámetros de las vistas.
type Config struct {
	FlowTTL         time.Duration // 1h
	ListTTL         time.Duration // 60s
	DefaultPageSize int           // 20
	MaxPageSize     int           // 100
	UnpopularDays   int           // 30
	// ExportLimit filas máximas de una exportación.
	ExportLimit int
	// Location zona del negocio: define los días calendario de los reportes.
	Location *time.Location
}

func (c Config) withDefaults() Config {
	if c.FlowTTL <= 0 {
		c.FlowTTL = time.Hour
	}
	if c.ListTTL <= 0 {
		c.ListTTL = 60 * time.Second
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if c.UnpopularDays <= 0 {
		c.UnpopularDays = 30
	}
	if c.ExportLimit <= 0 {
		c.ExportLimit = 10000
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

// DayFlow entradas y salidas de un día.
type DayFlow struct {
	Date string `json:"date"`
	In   int64  `json:"in"`
	Out  int64  `json:"out"`
}

// WeeklyFlow flujo de lunes a domingo de la semana que contiene la fecha pedida.
type WeeklyFlow struct {
	WeekStart   string    `json:"week_start"`
	Days        []DayFlow `json:"days"`
	TotalStock  int64     `json:"total_stock"`
	StockSource string    `json:"stock_source"`
}

// CategoryShare participación de una categoría en el stock vivo.
type CategoryShare struct {
	Category     string          `json:"category"`
	ProductCount int             `json:"product_count"`
	TotalPieces  int64           `json:"total_pieces"`
	Percentage   decimal.Decimal `json:"percentage"`
}

// ProductPage página del listado filtrado.
type ProductPage struct {
	FilterType string                         `json:"filter_type"`
	Page       int                            `json:"page"`
	PageSize   int                            `json:"page_size"`
	Total      int                            `json:"total"`
	Items      []repository.ProductListResult `json:"items"`
}

// Service vistas de reportes.
type Service struct {
	reports repository.ReportRepository
	stock   CompanyStockReader
	cache   ports.CacheInvalidator
	metrics ports.Metrics
	log     *logger.Logger
	cfg     Config
	now     func() time.Time
}

// NewService construye el servicio. metrics puede ser nil.
func NewService(
	reports repository.ReportRepository,
	stock CompanyStockReader,
	cache ports.CacheInvalidator,
	metrics ports.Metrics,
	log *logger.Logger,
	cfg Config,
) *Service {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Service{
		reports: reports,
		stock:   stock,
		cache:   cache,
		metrics: metrics,
		log:     log.Component("reporting"),
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WeekStart medianoche del lunes de la semana de t, en loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
}

// Location zona del negocio usada para los días calendario.
func (s *Service) Location() *time.Location { return s.cfg.Location }

// WeekOf lunes de la semana de t en la zona del negocio.
func (s *Service) WeekOf(t time.Time) time.Time { return WeekStart(t, s.cfg.Location) }

// businessDay fecha calendario de t en la zona del negocio, como medianoche UTC
// (mismo formato que snapshot_date).
func (s *Service) businessDay(t time.Time) time.Time {
	y, m, d := t.In(s.cfg.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeeklyFlow entradas/salidas por día de la semana de date y el stock total más
// reciente: el último snapshot hasta hoy o, si no hay, la suma viva del ledger.
func (s *Service) WeeklyFlow(ctx context.Context, companyID string, date time.Time) (*WeeklyFlow, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidInput
	}
	start := s.WeekOf(date)
	key := s.cacheKey(ctx, companyID, "product_flow", "week", start.Format(dateLayout))

	var cached WeeklyFlow
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	end := start.AddDate(0, 0, 7)
	rows, err := s.reports.DailyFlow(ctx, companyID, start, end, s.cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("flujo diario: %w", err)
	}
	flow := &WeeklyFlow{WeekStart: start.Format(dateLayout), Days: make([]DayFlow, 7)}
	index := make(map[string]int, 7)
	for i := range flow.Days {
		d := start.AddDate(0, 0, i).Format(dateLayout)
		flow.Days[i].Date = d
		index[d] = i
	}
	for _, r := range rows {
		i, ok := index[r.Day.Format(dateLayout)]
		if !ok {
			continue
		}
		if r.RecordType == entity.RecordTypeIn {
			flow.Days[i].In += r.TotalPieces
		} else {
			flow.Days[i].Out += r.TotalPieces
		}
	}

	total, found, err := s.reports.LatestSnapshotTotal(ctx, companyID, s.businessDay(s.now()))
	if err != nil {
		return nil, fmt.Errorf("último snapshot: %w", err)
	}
	flow.TotalStock, flow.StockSource = total, SourceSnapshot
	if !found {
		live, err := s.stock.CompanyStock(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("stock vivo: %w", err)
		}
		flow.TotalStock, flow.StockSource = live, SourceLive
	}

	s.store(ctx, key, flow, s.cfg.FlowTTL)
	return flow, nil
}

// CategoryComposition stock vivo por categoría con su porcentaje sobre el total.
func (s *Service) CategoryComposition(ctx context.Context, companyID string) ([]CategoryShare, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidInput
	}
	key := s.cacheKey(ctx, companyID, "category_composition")
	var cached []CategoryShare
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.reports.CategoryComposition(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("composición por categoría: %w", err)
	}
	var sum int64
	for _, r := range rows {
		sum += r.TotalPieces
	}
	out := make([]CategoryShare, 0, len(rows))
	hundred := decimal.NewFromInt(100)
	for _, r := range rows {
		pct := decimal.Zero
		if sum > 0 {
			pct = decimal.NewFromInt(r.TotalPieces).Div(decimal.NewFromInt(sum)).Mul(hundred).Round(2)
		}
		out = append(out, CategoryShare{
			Category:     r.Category,
			ProductCount: r.ProductCount,
			TotalPieces:  r.TotalPieces,
			Percentage:   pct,
		})
	}

	s.store(ctx, key, out, s.cfg.ListTTL)
	return out, nil
}

// ProductList listado paginado según filterType (all, shortage, unpopular, volatile).
// page empieza en 1; size se acota a MaxPageSize.
func (s *Service) ProductList(ctx context.Context, companyID, filterType string, page, size int) (*ProductPage, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidInput
	}
	filterType, err := normalizeFilter(filterType)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = s.cfg.DefaultPageSize
	}
	if size > s.cfg.MaxPageSize {
		size = s.cfg.MaxPageSize
	}

	key := s.cacheKey(ctx, companyID, "products", "filter_type", filterType,
		"page", fmt.Sprint(page), "size", fmt.Sprint(size))
	var cached ProductPage
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	rows, total, err := s.reports.ListProducts(ctx, s.filter(companyID, filterType, size, (page-1)*size))
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	if rows == nil {
		rows = []repository.ProductListResult{}
	}
	out := &ProductPage{FilterType: filterType, Page: page, PageSize: size, Total: total, Items: rows}
	s.store(ctx, key, out, s.cfg.ListTTL)
	return out, nil
}

// ExportProducts filas sin paginar para exportación, siempre en vivo.
func (s *Service) ExportProducts(ctx context.Context, companyID, filterType string) ([]repository.ProductListResult, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidInput
	}
	filterType, err := normalizeFilter(filterType)
	if err != nil {
		return nil, err
	}
	rows, _, err := s.reports.ListProducts(ctx, s.filter(companyID, filterType, s.cfg.ExportLimit, 0))
	if err != nil {
		return nil, fmt.Errorf("exportar productos: %w", err)
	}
	return rows, nil
}

func normalizeFilter(filterType string) (string, error) {
	switch filterType {
	case "":
		return repository.FilterAll, nil
	case repository.FilterAll, repository.FilterShortage, repository.FilterUnpopular, repository.FilterVolatile:
		return filterType, nil
	}
	return "", fmt.Errorf("%w: filter_type %q", domain.ErrInvalidInput, filterType)
}

func (s *Service) filter(companyID, filterType string, limit, offset int) repository.ProductListFilter {
	return repository.ProductListFilter{
		CompanyID:  companyID,
		FilterType: filterType,
		OutSince:   s.now().AddDate(0, 0, -s.cfg.UnpopularDays),
		Limit:      limit,
		Offset:     offset,
	}
}

// lookup lee de caché. Un error de caché cuenta como fallo y se recalcula en vivo.
// cacheKey clave bajo la generación vigente de la empresa, leída antes de calcular.
// Devuelve "" si la caché no responde: se calcula en vivo y no se guarda.
func (s *Service) cacheKey(ctx context.Context, companyID string, parts ...string) string {
	gen, err := s.cache.Generation(ctx, companyID)
	if err != nil {
		s.log.Warn().Err(err).Str("company_id", companyID).Msg("generación de caché no disponible, se calcula en vivo")
		s.metrics.CacheLookup(false)
		return ""
	}
	return ports.GenerationKey(companyID, gen, parts...)
}

func (s *Service) lookup(ctx context.Context, key string, dest any) bool {
	if key == "" {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("lectura de caché fallida, se calcula en vivo")
		hit = false
	}
	s.metrics.CacheLookup(hit)
	return hit
}

func (s *Service) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("escritura de caché fallida")
	}
}
