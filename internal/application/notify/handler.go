// Package notify materializa los avisos derivados de eventos de dominio y
// decide por qué camino (cola o en línea) se entregan.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/event"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Handler convierte un evento en notificaciones para los responsables (owner/admin) de la empresa.
type Handler struct {
	memberships   repository.MembershipRepository
	notifications repository.NotificationRepository
	log           *logger.Logger
	now           func() time.Time
}

// NewHandler construye el handler de eventos.
func NewHandler(memberships repository.MembershipRepository, notifications repository.NotificationRepository, log *logger.Logger) *Handler {
	return &Handler{
		memberships:   memberships,
		notifications: notifications,
		log:           log.Component("notify"),
		now:           time.Now,
	}
}

// Handle persiste una notificación por responsable. Reentregar el mismo evento
// duplica avisos: la cola garantiza al menos una entrega, no exactamente una.
func (h *Handler) Handle(ctx context.Context, e event.Event) error {
	var (
		kind, message, relatedID, exclude string
	)
	switch ev := e.(type) {
	case event.ProductCreated:
		kind = entity.NotificationProductAdded
		message = fmt.Sprintf("Se registró el producto '%s' en %s.", ev.ProductName, ev.CompanyName)
		relatedID = ev.ProductID
	case event.MembershipCreated:
		kind = entity.NotificationMemberAdded
		message = fmt.Sprintf("%s se unió a %s.", ev.Username, ev.CompanyName)
		relatedID = ev.MembershipID
		exclude = ev.UserID
	default:
		return fmt.Errorf("evento no soportado: %s", e.Type())
	}

	managers, err := h.memberships.ListManagers(ctx, e.Company())
	if err != nil {
		return fmt.Errorf("listar responsables: %w", err)
	}

	now := h.now()
	list := make([]*entity.Notification, 0, len(managers))
	for _, m := range managers {
		if m.UserID == exclude {
			continue
		}
		list = append(list, &entity.Notification{
			ID:              uuid.New().String(),
			CompanyID:       e.Company(),
			RecipientID:     m.UserID,
			Type:            kind,
			Message:         message,
			RelatedObjectID: relatedID,
			CreatedAt:       now,
		})
	}
	if len(list) == 0 {
		return nil
	}
	if err := h.notifications.CreateBatch(ctx, list); err != nil {
		return fmt.Errorf("guardar notificaciones: %w", err)
	}
	h.log.Debug().
		Str("event", e.Type()).
		Str("company_id", e.Company()).
		Int("recipients", len(list)).
		Msg("notificaciones creadas")
	return nil
}
