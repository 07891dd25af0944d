// Package export genera los archivos descargables de los reportes (XLSX y PDF).
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stockledger-api/internal/application/reporting"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ reporting.SpreadsheetWriter = (*ExcelWriter)(nil)

// ExcelWriter implementa reporting.SpreadsheetWriter con excelize.
type ExcelWriter struct{}

func NewExcelWriter() *ExcelWriter { return &ExcelWriter{} }

// ProductListXLSX una fila por producto bajo una cabecera fija.
func (w *ExcelWriter) ProductListXLSX(rows []repository.ProductListResult) ([]byte, error) {
	data := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		data = append(data, []interface{}{
			r.ID, r.Name, r.Category, r.Unit, r.Stock, r.Variation.StringFixed(2), r.OutCount,
		})
	}
	return writeSheet("Productos",
		[]interface{}{"id", "nombre", "categoría", "unidad", "stock", "variación %", "salidas 30d"},
		data,
	)
}

// WeeklyFlowXLSX siete filas de entradas/salidas y el stock total al pie.
func (w *ExcelWriter) WeeklyFlowXLSX(flow *reporting.WeeklyFlow) ([]byte, error) {
	data := make([][]interface{}, 0, len(flow.Days)+2)
	for _, d := range flow.Days {
		data = append(data, []interface{}{d.Date, d.In, d.Out})
	}
	data = append(data,
		[]interface{}{},
		[]interface{}{"stock total (" + flow.StockSource + ")", flow.TotalStock},
	)
	return writeSheet("Semana "+flow.WeekStart,
		[]interface{}{"fecha", "entradas", "salidas"},
		data,
	)
}

func writeSheet(name string, header []interface{}, data [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, name); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: cabecera: %w", err)
	}
	for i, values := range data {
		if len(values) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("xlsx: celda: %w", err)
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", i+2, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}
