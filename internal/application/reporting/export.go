package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// Exporter arma los archivos descargables a partir de las vistas.
type Exporter struct {
	svc       *Service
	companies repository.CompanyRepository
	xlsx      SpreadsheetWriter
	pdf       PDFWriter
}

func NewExporter(svc *Service, companies repository.CompanyRepository, xlsx SpreadsheetWriter, pdf PDFWriter) *Exporter {
	return &Exporter{svc: svc, companies: companies, xlsx: xlsx, pdf: pdf}
}

// ProductsXLSX listado filtrado completo en Excel.
func (e *Exporter) ProductsXLSX(ctx context.Context, companyID, filterType string) ([]byte, error) {
	rows, err := e.svc.ExportProducts(ctx, companyID, filterType)
	if err != nil {
		return nil, err
	}
	return e.xlsx.ProductListXLSX(rows)
}

// WeeklyFlowXLSX flujo semanal en Excel.
func (e *Exporter) WeeklyFlowXLSX(ctx context.Context, companyID string, date time.Time) ([]byte, error) {
	flow, err := e.svc.WeeklyFlow(ctx, companyID, date)
	if err != nil {
		return nil, err
	}
	return e.xlsx.WeeklyFlowXLSX(flow)
}

// StockReportPDF reporte de stock de la empresa: composición por categoría y productos.
func (e *Exporter) StockReportPDF(ctx context.Context, companyID string) ([]byte, error) {
	company, err := e.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa: %w", err)
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	categories, err := e.svc.CategoryComposition(ctx, companyID)
	if err != nil {
		return nil, err
	}
	products, err := e.svc.ExportProducts(ctx, companyID, repository.FilterAll)
	if err != nil {
		return nil, err
	}
	total, err := e.svc.stock.CompanyStock(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("stock vivo: %w", err)
	}
	return e.pdf.StockReport(&StockReportPDF{
		CompanyName: company.Name,
		GeneratedAt: e.svc.now(),
		TotalStock:  total,
		Categories:  categories,
		Products:    products,
	})
}
