package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// Asegura que los repos implementan los puertos.
var (
	_ repository.CompanyRepository    = (*CompanyRepo)(nil)
	_ repository.MembershipRepository = (*MembershipRepo)(nil)
)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste una nueva empresa.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO companies (id, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.OwnerID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	var c entity.Company
	err := r.q.QueryRow(ctx, `
		SELECT id, name, owner_id, created_at, updated_at FROM companies WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// List lista empresas con paginación.
func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, owner_id, created_at, updated_at FROM companies
		ORDER BY created_at DESC, id LIMIT NULLIF($1::int, 0) OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()
	var list []*entity.Company
	for rows.Next() {
		var c entity.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// ListIDs ids de todas las empresas (job de snapshots).
func (r *CompanyRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list company ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan company id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MembershipRepo membresías usuario-empresa.
type MembershipRepo struct {
	q Querier
}

func NewMembershipRepository(q Querier) *MembershipRepo {
	return &MembershipRepo{q: q}
}

const membershipColumns = `id, company_id, user_id, username, role, department_id, created_at`

// Create falla con domain.ErrDuplicate si el usuario ya pertenece a la empresa.
func (r *MembershipRepo) Create(ctx context.Context, m *entity.Membership) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO memberships (`+membershipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.CompanyID, m.UserID, m.Username, m.Role, m.DepartmentID, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (r *MembershipRepo) GetByCompanyAndUser(ctx context.Context, companyID, userID string) (*entity.Membership, error) {
	var m entity.Membership
	err := r.q.QueryRow(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE company_id = $1 AND user_id = $2`,
		companyID, userID,
	).Scan(&m.ID, &m.CompanyID, &m.UserID, &m.Username, &m.Role, &m.DepartmentID, &m.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

func (r *MembershipRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Membership, error) {
	return r.list(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE company_id = $1 ORDER BY created_at`, companyID)
}

func (r *MembershipRepo) ListManagers(ctx context.Context, companyID string) ([]*entity.Membership, error) {
	return r.list(ctx, `
		SELECT `+membershipColumns+` FROM memberships
		WHERE company_id = $1 AND role IN ('owner', 'admin') ORDER BY created_at`, companyID)
}

func (r *MembershipRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Membership, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()
	var list []*entity.Membership
	for rows.Next() {
		var m entity.Membership
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.UserID, &m.Username, &m.Role, &m.DepartmentID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
