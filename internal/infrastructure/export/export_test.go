package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stockledger-api/internal/application/reporting"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/export"
)

var rows = []repository.ProductListResult{
	{ID: "p1", Name: "Tornillo", Category: "ferretería", Unit: "count", Stock: 1200, Variation: decimal.NewFromFloat(12.5), OutCount: 3},
	{ID: "p2", Name: "Aceite", Category: "insumos", Unit: "ml", Stock: 40, Variation: decimal.Zero},
}

func TestExcelWriter_ListadoDeProductos(t *testing.T) {
	data, err := export.NewExcelWriter().ProductListXLSX(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got, err := f.GetRows("Productos")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "nombre", got[0][1])
	assert.Equal(t, []string{"p1", "Tornillo", "ferretería", "count", "1200", "12.50", "3"}, got[1])
	assert.Equal(t, "Aceite", got[2][1])
}

func TestExcelWriter_FlujoSemanal(t *testing.T) {
	flow := &reporting.WeeklyFlow{
		WeekStart: "2024-06-03",
		Days: []reporting.DayFlow{
			{Date: "2024-06-03", In: 10}, {Date: "2024-06-04", Out: 4},
		},
		TotalStock:  6,
		StockSource: reporting.SourceLive,
	}
	data, err := export.NewExcelWriter().WeeklyFlowXLSX(flow)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	v, err := f.GetCellValue("Semana 2024-06-03", "B2")
	require.NoError(t, err)
	assert.Equal(t, "10", v)
	v, err = f.GetCellValue("Semana 2024-06-03", "B5")
	require.NoError(t, err)
	assert.Equal(t, "6", v)
}

func TestPDFWriter_GeneraDocumento(t *testing.T) {
	data, err := export.NewPDFWriter().StockReport(&reporting.StockReportPDF{
		CompanyName: "Acme",
		GeneratedAt: time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC),
		TotalStock:  1240,
		Categories: []reporting.CategoryShare{
			{Category: "ferretería", ProductCount: 1, TotalPieces: 1200, Percentage: decimal.NewFromFloat(96.77)},
			{Category: "insumos", ProductCount: 1, TotalPieces: 40, Percentage: decimal.NewFromFloat(3.23)},
		},
		Products: rows,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "cabecera PDF")
}
