package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Company, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// MembershipRepository puerto de persistencia de membresías.
type MembershipRepository interface {
	Create(ctx context.Context, membership *entity.Membership) error
	GetByCompanyAndUser(ctx context.Context, companyID, userID string) (*entity.Membership, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Membership, error)
	// ListManagers miembros con rol owner o admin.
	ListManagers(ctx context.Context, companyID string) ([]*entity.Membership, error)
}
