package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo notificaciones en memoria.
type NotificationRepo struct {
	store *Store
}

// NewNotificationRepository construye el repositorio.
func NewNotificationRepository(store *Store) *NotificationRepo {
	return &NotificationRepo{store: store}
}

func (r *NotificationRepo) CreateBatch(_ context.Context, list []*entity.Notification) error {
	return r.store.with(nil, func(st *state) error {
		for _, n := range list {
			st.notifications[n.ID] = ptr(*n)
		}
		return nil
	})
}

func (r *NotificationRepo) ListByRecipient(_ context.Context, f repository.NotificationFilter) ([]*entity.Notification, error) {
	var list []*entity.Notification
	err := r.store.with(nil, func(st *state) error {
		for _, n := range st.notifications {
			if n.CompanyID != f.CompanyID || n.RecipientID != f.RecipientID {
				continue
			}
			if (f.OnlyUnread && n.IsRead) || (f.OnlyRead && !n.IsRead) {
				continue
			}
			if (!f.From.IsZero() && n.CreatedAt.Before(f.From)) || (!f.To.IsZero() && !n.CreatedAt.Before(f.To)) {
				continue
			}
			list = append(list, ptr(*n))
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].IsRead != list[j].IsRead {
			return !list[i].IsRead
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return paginate(list, f.Limit, f.Offset), err
}

func (r *NotificationRepo) MarkRead(_ context.Context, id, recipientID string) error {
	return r.store.with(nil, func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.RecipientID != recipientID {
			return domain.ErrNotFound
		}
		n.IsRead = true
		return nil
	})
}
