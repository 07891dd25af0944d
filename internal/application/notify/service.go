package notify

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// Valores del filtro date.
const (
	DateToday     = "today"
	DateYesterday = "yesterday"
	DateLast7Days = "last_7_days"
	DateOlder     = "older"
)

// Valores del filtro is_read.
const (
	ReadNew = "new"
	ReadOld = "read"
)

// ListQuery parámetros de List. Date y IsRead vacíos no filtran.
type ListQuery struct {
	CompanyID string
	UserID    string
	Date      string
	IsRead    string
	Limit     int
	Offset    int
}

// Service lectura y marcado de las notificaciones del usuario.
type Service struct {
	repo repository.NotificationRepository
	loc  *time.Location
	now  func() time.Time
}

// NewService construye el servicio. loc es la zona del negocio para el filtro date; nil = UTC.
func NewService(repo repository.NotificationRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List notificaciones del usuario en la empresa, no leídas primero.
// Un valor de date o is_read desconocido devuelve domain.ErrInvalidInput.
func (s *Service) List(ctx context.Context, q ListQuery) ([]*entity.Notification, error) {
	if q.CompanyID == "" || q.UserID == "" {
		return nil, domain.ErrInvalidInput
	}
	f := repository.NotificationFilter{CompanyID: q.CompanyID, RecipientID: q.UserID, Limit: q.Limit, Offset: q.Offset}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	switch q.IsRead {
	case "":
	case ReadNew:
		f.OnlyUnread = true
	case ReadOld:
		f.OnlyRead = true
	default:
		return nil, domain.ErrInvalidInput
	}

	from, to, err := s.dateRange(q.Date)
	if err != nil {
		return nil, err
	}
	f.From, f.To = from, to
	return s.repo.ListByRecipient(ctx, f)
}

// dateRange traduce date a [from, to) sobre días calendario de la zona del negocio.
func (s *Service) dateRange(date string) (from, to time.Time, err error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	tomorrow := today.AddDate(0, 0, 1)
	switch date {
	case "":
		return time.Time{}, time.Time{}, nil
	case DateToday:
		return today, tomorrow, nil
	case DateYesterday:
		return today.AddDate(0, 0, -1), today, nil
	case DateLast7Days:
		return today.AddDate(0, 0, -6), tomorrow, nil
	case DateOlder:
		return time.Time{}, today.AddDate(0, 0, -6), nil
	default:
		return time.Time{}, time.Time{}, domain.ErrInvalidInput
	}
}

// MarkRead marca como leída. Devuelve domain.ErrNotFound si no pertenece al usuario.
func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	if id == "" || userID == "" {
		return domain.ErrInvalidInput
	}
	return s.repo.MarkRead(ctx, id, userID)
}
