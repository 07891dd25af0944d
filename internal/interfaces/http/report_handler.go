package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/reporting"
)

const (
	dateLayout   = "2006-01-02"
	mimeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF      = "application/pdf"
	attachFormat = `attachment; filename="%s"`
)

// ReportHandler vistas de reportes y exportaciones (protegido).
type ReportHandler struct {
	svc      *reporting.Service
	exporter *reporting.Exporter
	now      func() time.Time
}

// NewReportHandler construye el handler.
func NewReportHandler(svc *reporting.Service, exporter *reporting.Exporter) *ReportHandler {
	return &ReportHandler{svc: svc, exporter: exporter, now: time.Now}
}

// WeeklyFlow godoc
// @Summary      Flujo semanal de entradas y salidas
// @Description  Semana de lunes a domingo que contiene date. total_stock sale del último snapshot o del ledger.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        date  query     string  false  "Fecha YYYY-MM-DD (por defecto hoy)"
// @Success      200   {object}  reporting.WeeklyFlow
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/reports/weekly-flow [get]
func (h *ReportHandler) WeeklyFlow(c *fiber.Ctx) error {
	date, ok := h.dateParam(c)
	if !ok {
		return invalidDate(c)
	}
	out, err := h.svc.WeeklyFlow(c.UserContext(), GetCompanyID(c), date)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(out)
}

// Categories godoc
// @Summary      Composición del stock por categoría
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  reporting.CategoryShare
// @Router       /api/reports/categories [get]
func (h *ReportHandler) Categories(c *fiber.Ctx) error {
	out, err := h.svc.CategoryComposition(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(out)
}

// Products godoc
// @Summary      Listado filtrado de productos
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        filter_type  query     string  false  "all | shortage | unpopular | volatile"
// @Param        page         query     int     false  "Página"  default(1)
// @Param        page_size    query     int     false  "Tamaño"  default(20)
// @Success      200          {object}  reporting.ProductPage
// @Failure      400          {object}  dto.ErrorResponse
// @Router       /api/reports/products [get]
func (h *ReportHandler) Products(c *fiber.Ctx) error {
	out, err := h.svc.ProductList(c.UserContext(), GetCompanyID(c),
		c.Query("filter_type"), c.QueryInt("page", 1), c.QueryInt("page_size", 0))
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(out)
}

// ProductsXLSX godoc
// @Summary      Exportar listado de productos a Excel
// @Tags         reports
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        filter_type  query  string  false  "all | shortage | unpopular | volatile"
// @Success      200
// @Router       /api/reports/products.xlsx [get]
func (h *ReportHandler) ProductsXLSX(c *fiber.Ctx) error {
	filter := c.Query("filter_type", "all")
	data, err := h.exporter.ProductsXLSX(c.UserContext(), GetCompanyID(c), filter)
	if err != nil {
		return respondError(c, err, "")
	}
	return sendFile(c, data, mimeXLSX, fmt.Sprintf("productos_%s_%s.xlsx", filter, h.now().Format(dateLayout)))
}

// WeeklyFlowXLSX godoc
// @Summary      Exportar flujo semanal a Excel
// @Tags         reports
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        date  query  string  false  "Fecha YYYY-MM-DD (por defecto hoy)"
// @Success      200
// @Router       /api/reports/weekly-flow.xlsx [get]
func (h *ReportHandler) WeeklyFlowXLSX(c *fiber.Ctx) error {
	date, ok := h.dateParam(c)
	if !ok {
		return invalidDate(c)
	}
	data, err := h.exporter.WeeklyFlowXLSX(c.UserContext(), GetCompanyID(c), date)
	if err != nil {
		return respondError(c, err, "")
	}
	week := h.svc.WeekOf(date).Format(dateLayout)
	return sendFile(c, data, mimeXLSX, "flujo_semanal_"+week+".xlsx")
}

// StockPDF godoc
// @Summary      Reporte de stock en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/stock.pdf [get]
func (h *ReportHandler) StockPDF(c *fiber.Ctx) error {
	data, err := h.exporter.StockReportPDF(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err, "empresa no encontrada")
	}
	return sendFile(c, data, mimePDF, "stock_"+h.now().Format(dateLayout)+".pdf")
}

// dateParam lee ?date=YYYY-MM-DD en la zona del negocio; sin parámetro usa el reloj.
func (h *ReportHandler) dateParam(c *fiber.Ctx) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return h.now(), true
	}
	t, err := time.ParseInLocation(dateLayout, raw, h.svc.Location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func invalidDate(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "date debe tener formato YYYY-MM-DD"})
}

func sendFile(c *fiber.Ctx, data []byte, contentType, filename string) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(attachFormat, filename))
	return c.Send(data)
}
