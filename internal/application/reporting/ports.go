package reporting

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// CompanyStockReader stock vivo agregado de una empresa (el ledger).
type CompanyStockReader interface {
	CompanyStock(ctx context.Context, companyID string) (int64, error)
}

// SpreadsheetWriter genera hojas de cálculo de los reportes. Implementado en infrastructure/export.
type SpreadsheetWriter interface {
	ProductListXLSX(rows []repository.ProductListResult) ([]byte, error)
	WeeklyFlowXLSX(flow *WeeklyFlow) ([]byte, error)
}

// StockReportPDF datos del reporte PDF de stock.
type StockReportPDF struct {
	CompanyName string
	GeneratedAt time.Time
	TotalStock  int64
	Categories  []CategoryShare
	Products    []repository.ProductListResult
}

// PDFWriter genera el reporte de stock en PDF. Implementado en infrastructure/export.
type PDFWriter interface {
	StockReport(report *StockReportPDF) ([]byte, error)
}
