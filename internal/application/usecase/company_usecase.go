package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/event"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// CompanyUseCase aplica reglas de negocio para empresas y sus membresías.
type CompanyUseCase struct {
	repo        repository.CompanyRepository
	memberships repository.MembershipRepository
	now         func() time.Time
}

// NewCompanyUseCase construye el caso de uso con los puertos de persistencia.
func NewCompanyUseCase(repo repository.CompanyRepository, memberships repository.MembershipRepository) *CompanyUseCase {
	return &CompanyUseCase{repo: repo, memberships: memberships, now: time.Now}
}

// Create crea la empresa y registra a ownerID como su owner.
func (uc *CompanyUseCase) Create(ctx context.Context, ownerID string, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	company, err := entity.NewCompany(in.Name, ownerID, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	// Empresa y membresía owner no comparten transacción.
	if err := uc.memberships.Create(ctx, company.OwnerMembership(in.Username)); err != nil {
		return nil, err
	}
	return entityToCompanyResponse(company), nil
}

// GetByID obtiene una empresa por ID.
func (uc *CompanyUseCase) GetByID(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, nil
	}
	return entityToCompanyResponse(company), nil
}

// List lista empresas con paginación.
func (uc *CompanyUseCase) List(ctx context.Context, limit, offset int) (*dto.CompanyListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *entityToCompanyResponse(c))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// AddMember une un usuario a la empresa y devuelve el evento MembershipCreated.
// domain.ErrDuplicate si ya es miembro.
func (uc *CompanyUseCase) AddMember(ctx context.Context, companyID string, in dto.AddMemberRequest) (*dto.MembershipResponse, event.Event, error) {
	if in.UserID == "" || !entity.ValidRole(in.Role) || in.Role == entity.RoleOwner {
		return nil, nil, domain.ErrInvalidInput
	}
	company, err := uc.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	if company == nil {
		return nil, nil, domain.ErrNotFound
	}
	now := uc.now().UTC()
	m := &entity.Membership{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		UserID:       in.UserID,
		Username:     in.Username,
		Role:         in.Role,
		DepartmentID: in.DepartmentID,
		CreatedAt:    now,
	}
	if err := uc.memberships.Create(ctx, m); err != nil {
		return nil, nil, err
	}
	ev := event.MembershipCreated{
		MembershipID: m.ID,
		CompanyID:    companyID,
		CompanyName:  company.Name,
		UserID:       m.UserID,
		Username:     m.Username,
		OccurredAt:   now,
	}
	return toMembershipResponse(m), ev, nil
}

// ListMembers miembros de la empresa.
func (uc *CompanyUseCase) ListMembers(ctx context.Context, companyID string) ([]dto.MembershipResponse, error) {
	list, err := uc.memberships.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MembershipResponse, 0, len(list))
	for _, m := range list {
		out = append(out, *toMembershipResponse(m))
	}
	return out, nil
}

// IsMember lo usa el middleware de membresía: el token dice la empresa, la DB lo confirma.
func (uc *CompanyUseCase) IsMember(ctx context.Context, companyID, userID string) (bool, error) {
	m, err := uc.memberships.GetByCompanyAndUser(ctx, companyID, userID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

func entityToCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	return &dto.CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toMembershipResponse(m *entity.Membership) *dto.MembershipResponse {
	return &dto.MembershipResponse{
		ID:           m.ID,
		CompanyID:    m.CompanyID,
		UserID:       m.UserID,
		Username:     m.Username,
		Role:         m.Role,
		DepartmentID: m.DepartmentID,
		CreatedAt:    m.CreatedAt,
	}
}
