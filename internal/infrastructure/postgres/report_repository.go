package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

const (
	shortageThreshold = 100
	volatileThreshold = 10
)

// ReportRepo consultas de solo lectura para flujo semanal, categorías y listado de productos.
type ReportRepo struct {
	q       Querier
	builder squirrel.StatementBuilderType
}

// NewReportRepository construye el adaptador de reportes.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{
		q:       q,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// DailyFlow agrupa por día calendario de loc y tipo de registro en [from, to).
func (r *ReportRepo) DailyFlow(ctx context.Context, companyID string, from, to time.Time, loc *time.Location) ([]repository.DailyFlowResult, error) {
	const query = `
	SELECT
	    (record_date AT TIME ZONE $4)::date AS day,
	    record_type,
	    SUM(total_pieces)::bigint           AS total_pieces
	FROM stock_records
	WHERE company_id = $1
	  AND record_date >= $2
	  AND record_date <  $3
	GROUP BY 1, 2
	ORDER BY 1, 2`

	var items []repository.DailyFlowResult
	if err := pgxscan.Select(ctx, r.q, &items, query, companyID, from, to, tzName(loc)); err != nil {
		return nil, fmt.Errorf("report.DailyFlow: %w", err)
	}
	return items, nil
}

// LatestSnapshotTotal suma los snapshots de la fecha más reciente <= onOrBefore.
func (r *ReportRepo) LatestSnapshotTotal(ctx context.Context, companyID string, onOrBefore time.Time) (int64, bool, error) {
	const query = `
	SELECT COALESCE(SUM(s.total_pieces), 0)::bigint, COUNT(*)
	FROM stock_snapshots s
	WHERE s.company_id = $1
	  AND s.snapshot_date = (
	      SELECT MAX(snapshot_date) FROM stock_snapshots
	      WHERE company_id = $1 AND snapshot_date <= $2::date
	  )`

	var (
		total int64
		count int64
	)
	if err := r.q.QueryRow(ctx, query, companyID, onOrBefore).Scan(&total, &count); err != nil {
		return 0, false, fmt.Errorf("report.LatestSnapshotTotal: %w", err)
	}
	return total, count > 0, nil
}

// CategoryComposition stock pendiente de los lotes de entrada agregado por categoría.
func (r *ReportRepo) CategoryComposition(ctx context.Context, companyID string) ([]repository.CategoryResult, error) {
	const query = `
	SELECT
	    p.category,
	    COUNT(DISTINCT p.id)                                                  AS product_count,
	    COALESCE(SUM(sr.total_pieces - sr.consumed_quantity), 0)::bigint     AS total_pieces
	FROM products p
	LEFT JOIN stock_records sr
	       ON sr.product_id = p.id
	      AND sr.record_type = 'in'
	WHERE p.company_id = $1
	GROUP BY p.category
	ORDER BY total_pieces DESC, p.category`

	var items []repository.CategoryResult
	if err := pgxscan.Select(ctx, r.q, &items, query, companyID); err != nil {
		return nil, fmt.Errorf("report.CategoryComposition: %w", err)
	}
	return items, nil
}

// ListProducts listado filtrado. out_count cuenta salidas desde OutSince.
func (r *ReportRepo) ListProducts(ctx context.Context, f repository.ProductListFilter) ([]repository.ProductListResult, int, error) {
	outCounts := squirrel.Select("product_id", "COUNT(*) AS out_count").
		From("stock_records").
		Where(squirrel.Eq{"company_id": f.CompanyID, "record_type": entity.RecordTypeOut}).
		Where(squirrel.GtOrEq{"record_date": f.OutSince}).
		GroupBy("product_id")

	base := r.builder.
		Select().
		From("products p").
		JoinClause(outCounts.Prefix("LEFT JOIN (").Suffix(") o ON o.product_id = p.id")).
		Where(squirrel.Eq{"p.company_id": f.CompanyID})

	switch f.FilterType {
	case repository.FilterAll, "":
	case repository.FilterShortage:
		base = base.Where(squirrel.Lt{"p.current_stock": shortageThreshold})
	case repository.FilterUnpopular:
		base = base.Where("COALESCE(o.out_count, 0) = 0")
	case repository.FilterVolatile:
		base = base.Where(squirrel.Expr("ABS(p.variation) > ?", volatileThreshold))
	default:
		return nil, 0, domain.ErrInvalidInput
	}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("report.ListProducts build count: %w", err)
	}
	var total int
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("report.ListProducts count: %w", err)
	}

	list := base.
		Columns(
			"p.id", "p.name", "p.category", "p.unit", "p.current_stock", "p.variation",
			"COALESCE(o.out_count, 0) AS out_count",
		).
		OrderBy("p.created_at DESC", "p.id").
		Offset(uint64(max(f.Offset, 0)))
	if f.Limit > 0 {
		list = list.Limit(uint64(f.Limit))
	}
	listSQL, listArgs, err := list.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("report.ListProducts build: %w", err)
	}

	var rows []repository.ProductListResult
	if err := pgxscan.Select(ctx, r.q, &rows, listSQL, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("report.ListProducts: %w", err)
	}
	return rows, total, nil
}

// tzName nombre IANA para AT TIME ZONE; Local no existe en Postgres.
func tzName(loc *time.Location) string {
	if loc == nil || loc.String() == "Local" {
		return "UTC"
	}
	return loc.String()
}
