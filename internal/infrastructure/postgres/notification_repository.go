package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

type NotificationRepo struct {
	q       Querier
	builder squirrel.StatementBuilderType
}

func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// CreateBatch inserta con COPY: un aviso por responsable de la empresa.
func (r *NotificationRepo) CreateBatch(ctx context.Context, list []*entity.Notification) error {
	if len(list) == 0 {
		return nil
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"notifications"},
		[]string{"id", "company_id", "recipient_id", "type", "message", "related_object_id", "is_read", "created_at"},
		pgx.CopyFromSlice(len(list), func(i int) ([]any, error) {
			n := list[i]
			return []any{n.ID, n.CompanyID, n.RecipientID, n.Type, n.Message, n.RelatedObjectID, n.IsRead, n.CreatedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return nil
}

// ListByRecipient no leídas primero, luego por fecha descendente.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, f repository.NotificationFilter) ([]*entity.Notification, error) {
	qb := r.builder.Select("id", "company_id", "recipient_id", "type", "message", "related_object_id", "is_read", "created_at").
		From("notifications").
		Where(squirrel.Eq{"company_id": f.CompanyID, "recipient_id": f.RecipientID}).
		OrderBy("is_read", "created_at DESC")
	switch {
	case f.OnlyUnread:
		qb = qb.Where(squirrel.Eq{"is_read": false})
	case f.OnlyRead:
		qb = qb.Where(squirrel.Eq{"is_read": true})
	}
	if !f.From.IsZero() {
		qb = qb.Where(squirrel.GtOrEq{"created_at": f.From})
	}
	if !f.To.IsZero() {
		qb = qb.Where(squirrel.Lt{"created_at": f.To})
	}
	if f.Limit > 0 {
		qb = qb.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		qb = qb.Offset(uint64(f.Offset))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build notifications query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var list []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.RecipientID, &n.Type, &n.Message, &n.RelatedObjectID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, recipientID string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
