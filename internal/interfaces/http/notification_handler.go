package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/notify"
)

// NotificationHandler bandeja de avisos del usuario autenticado.
type NotificationHandler struct {
	svc *notify.Service
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(svc *notify.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List godoc
// @Summary      Listar notificaciones
// @Description  No leídas primero, luego por fecha descendente. Solo owner/admin.
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        date     query  string  false  "today | yesterday | last_7_days | older (zona del negocio)"
// @Param        is_read  query  string  false  "new | read"
// @Param        limit    query  int     false  "Límite"  default(20)
// @Param        offset   query  int     false  "Offset"  default(0)
// @Success      200      {object}  dto.NotificationListResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      403      {object}  dto.ErrorResponse
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	limit, offset := pageParams(c)
	list, err := h.svc.List(c.UserContext(), notify.ListQuery{
		CompanyID: companyID,
		UserID:    userID,
		Date:      c.Query("date"),
		IsRead:    c.Query("is_read"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return respondError(c, err, "")
	}
	items := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		items = append(items, dto.NotificationResponse{
			ID:              n.ID,
			Type:            n.Type,
			Message:         n.Message,
			RelatedObjectID: n.RelatedObjectID,
			IsRead:          n.IsRead,
			CreatedAt:       n.CreatedAt,
		})
	}
	return c.JSON(dto.NotificationListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}})
}

// MarkRead godoc
// @Summary      Marcar notificación como leída
// @Tags         notifications
// @Security     Bearer
// @Param        id   path  string  true  "ID de la notificación"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.svc.MarkRead(c.UserContext(), id, GetUserID(c)); err != nil {
		return respondError(c, err, "notificación no encontrada")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
