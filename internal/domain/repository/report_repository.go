package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Filtros del listado de productos.
const (
	FilterAll       = "all"
	FilterShortage  = "shortage"
	FilterUnpopular = "unpopular"
	FilterVolatile  = "volatile"
)

// DailyFlowResult piezas movidas por día y tipo de registro. Day es la fecha
// calendario en la zona pedida, como medianoche UTC.
type DailyFlowResult struct {
	Day         time.Time
	RecordType  string
	TotalPieces int64
}

// CategoryResult stock vivo agregado por categoría.
type CategoryResult struct {
	Category     string
	ProductCount int
	TotalPieces  int64
}

// ProductListFilter parámetros del listado filtrado de productos.
type ProductListFilter struct {
	CompanyID  string
	FilterType string
	OutSince   time.Time // ventana para contar salidas (unpopular)
	Limit      int
	Offset     int
}

// ProductListResult fila del listado filtrado.
type ProductListResult struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Category  string          `db:"category" json:"category"`
	Unit      string          `db:"unit" json:"unit"`
	Stock     int64           `db:"current_stock" json:"stock"`
	Variation decimal.Decimal `db:"variation" json:"variation"`
	OutCount  int64           `db:"out_count" json:"out_count"`
}

// ReportRepository consultas de solo lectura para las vistas de reportes.
type ReportRepository interface {
	// DailyFlow suma piezas de entradas y salidas por día calendario de loc en [from, to).
	DailyFlow(ctx context.Context, companyID string, from, to time.Time, loc *time.Location) ([]DailyFlowResult, error)

	// LatestSnapshotTotal suma total_pieces del snapshot más reciente con fecha <= onOrBefore.
	// found es false si la empresa aún no tiene snapshots.
	LatestSnapshotTotal(ctx context.Context, companyID string, onOrBefore time.Time) (total int64, found bool, err error)

	// CategoryComposition stock vivo (Σ lotes pendientes) por categoría.
	CategoryComposition(ctx context.Context, companyID string) ([]CategoryResult, error)

	// ListProducts listado filtrado y paginado; total es el número de filas sin paginar.
	ListProducts(ctx context.Context, filter ProductListFilter) (rows []ProductListResult, total int, err error)
}
