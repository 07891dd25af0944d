package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// NotificationFilter criterios de ListByRecipient. From/To cero no acotan; To es exclusivo.
type NotificationFilter struct {
	CompanyID   string
	RecipientID string
	From        time.Time
	To          time.Time
	OnlyUnread  bool
	OnlyRead    bool
	Limit       int // 0 = sin límite
	Offset      int
}

// NotificationRepository puerto de persistencia de notificaciones.
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*entity.Notification) error
	// ListByRecipient devuelve primero las no leídas y luego por fecha descendente.
	ListByRecipient(ctx context.Context, f NotificationFilter) ([]*entity.Notification, error)
	// MarkRead devuelve domain.ErrNotFound si la notificación no es del destinatario.
	MarkRead(ctx context.Context, id, recipientID string) error
}
