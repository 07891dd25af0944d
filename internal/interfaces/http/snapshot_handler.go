package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/snapshot"
)

// SnapshotHandler disparo manual del job de snapshots para la empresa del token.
type SnapshotHandler struct {
	agg *snapshot.Aggregator
	loc *time.Location
	now func() time.Time
}

// NewSnapshotHandler construye el handler. loc es la zona horaria del job programado.
func NewSnapshotHandler(agg *snapshot.Aggregator, loc *time.Location) *SnapshotHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SnapshotHandler{agg: agg, loc: loc, now: time.Now}
}

// Run godoc
// @Summary      Generar snapshots de hoy
// @Description  Solo owner o admin. Idempotente para la misma fecha.
// @Tags         snapshots
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SnapshotRunResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/snapshots/run [post]
func (h *SnapshotHandler) Run(c *fiber.Ctx) error {
	report, err := h.agg.RunCompany(c.UserContext(), GetCompanyID(c), h.now().In(h.loc))
	if err != nil {
		if errors.Is(err, snapshot.ErrAlreadyRunning) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "JOB_RUNNING", Message: "ya hay una corrida en curso"})
		}
		return respondError(c, err, "")
	}
	out := dto.SnapshotRunResponse{
		Date:      report.Date.Format(dateLayout),
		Processed: report.Processed,
		Succeeded: report.Succeeded,
		Partial:   report.Partial(),
	}
	for _, f := range report.Failures {
		out.Failures = append(out.Failures, dto.ProductFailureResponse{CompanyID: f.CompanyID, ProductID: f.ProductID, Error: f.Error})
	}
	return c.JSON(out)
}
