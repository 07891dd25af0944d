package export

import (
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/reporting"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ reporting.PDFWriter = (*PDFWriter)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ── Writer ────────────────────────────────────────────────────────────────────

// PDFWriter implementa reporting.PDFWriter usando Maroto v2.
//
// Layout A4:
//
//	HEADER: empresa + fecha de generación + stock total
//	TABLA 1: categoría | productos | piezas | %
//	TABLA 2: producto | categoría | unidad | stock | variación
type PDFWriter struct{}

func NewPDFWriter() *PDFWriter { return &PDFWriter{} }

// StockReport genera el PDF y devuelve sus bytes.
func (w *PDFWriter) StockReport(r *reporting.StockReportPDF) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de stock", true).
		WithAuthor(r.CompanyName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionRow("COMPOSICIÓN POR CATEGORÍA"))
	m.AddRows(tableHeaderRow(
		column{"Categoría", 6, align.Left},
		column{"Productos", 2, align.Right},
		column{"Piezas", 2, align.Right},
		column{"%", 2, align.Right},
	))
	for _, c := range r.Categories {
		m.AddRows(row.New(6).Add(
			cell(c.Category, 6, align.Left, nil),
			cell(strconv.Itoa(c.ProductCount), 2, align.Right, nil),
			cell(formatThousands(c.TotalPieces), 2, align.Right, nil),
			cell(c.Percentage.StringFixed(2), 2, align.Right, nil),
		))
	}

	m.AddRows(line.NewRow(4))
	m.AddRows(sectionRow("PRODUCTOS"))
	m.AddRows(tableHeaderRow(
		column{"Producto", 4, align.Left},
		column{"Categoría", 3, align.Left},
		column{"Unidad", 1, align.Center},
		column{"Stock", 2, align.Right},
		column{"Variación", 2, align.Right},
	))
	for _, p := range productRows(r.Products) {
		m.AddRows(p)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(r *reporting.StockReportPDF) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New(r.CompanyName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+r.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("STOCK TOTAL", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(formatThousands(r.TotalStock)+" piezas", props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
		),
	)
}

func sectionRow(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

type column struct {
	label string
	size  int
	align align.Type
}

func tableHeaderRow(cols ...column) core.Row {
	out := make([]core.Col, 0, len(cols))
	for _, c := range cols {
		out = append(out, col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: c.align, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(7).Add(out...)
}

func cell(value string, size int, a align.Type, color *props.Color) core.Col {
	return col.New(size).Add(text.New(value, props.Text{
		Size: 8, Align: a, Top: 1, Left: 1, Right: 1, Color: color,
	}))
}

// productRows marca en rojo la variación de los productos volátiles (|var| > 10).
func productRows(products []repository.ProductListResult) []core.Row {
	rows := make([]core.Row, 0, len(products))
	for _, p := range products {
		var varColor *props.Color
		if p.Variation.Abs().GreaterThan(volatileThreshold) {
			varColor = colorAlert
		}
		rows = append(rows, row.New(6).Add(
			cell(p.Name, 4, align.Left, nil),
			cell(p.Category, 3, align.Left, nil),
			cell(p.Unit, 1, align.Center, nil),
			cell(formatThousands(p.Stock), 2, align.Right, nil),
			cell(p.Variation.StringFixed(2)+"%", 2, align.Right, varColor),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

// formatThousands inserta puntos de miles: 1000000 → "1.000.000".
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	l := len(s)
	if l <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, l+l/3)
	for i, c := range []byte(s) {
		if i > 0 && (l-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}

var volatileThreshold = decimal.NewFromInt(10)
