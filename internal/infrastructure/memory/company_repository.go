package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository    = (*CompanyRepo)(nil)
	_ repository.MembershipRepository = (*MembershipRepo)(nil)
)

// CompanyRepo empresas en memoria.
type CompanyRepo struct {
	store *Store
}

// NewCompanyRepository construye el repositorio.
func NewCompanyRepository(store *Store) *CompanyRepo {
	return &CompanyRepo{store: store}
}

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	return r.store.with(nil, func(st *state) error {
		if _, ok := st.companies[c.ID]; ok {
			return domain.ErrDuplicate
		}
		st.companies[c.ID] = ptr(*c)
		return nil
	})
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	var out *entity.Company
	err := r.store.with(nil, func(st *state) error {
		if c, ok := st.companies[id]; ok {
			out = ptr(*c)
		}
		return nil
	})
	return out, err
}

func (r *CompanyRepo) List(_ context.Context, limit, offset int) ([]*entity.Company, error) {
	var list []*entity.Company
	err := r.store.with(nil, func(st *state) error {
		for _, c := range st.companies {
			list = append(list, ptr(*c))
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, limit, offset), err
}

// ListIDs incluye también empresas que solo existen a través de sus productos.
func (r *CompanyRepo) ListIDs(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	err := r.store.with(nil, func(st *state) error {
		for id := range st.companies {
			seen[id] = true
		}
		for _, p := range st.products {
			seen[p.CompanyID] = true
		}
		return nil
	})
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, err
}

// MembershipRepo membresías en memoria.
type MembershipRepo struct {
	store *Store
}

// NewMembershipRepository construye el repositorio.
func NewMembershipRepository(store *Store) *MembershipRepo {
	return &MembershipRepo{store: store}
}

func (r *MembershipRepo) Create(_ context.Context, m *entity.Membership) error {
	return r.store.with(nil, func(st *state) error {
		for _, existing := range st.memberships {
			if existing.CompanyID == m.CompanyID && existing.UserID == m.UserID {
				return domain.ErrDuplicate
			}
		}
		st.memberships[m.ID] = ptr(*m)
		return nil
	})
}

func (r *MembershipRepo) GetByCompanyAndUser(_ context.Context, companyID, userID string) (*entity.Membership, error) {
	var out *entity.Membership
	err := r.store.with(nil, func(st *state) error {
		for _, m := range st.memberships {
			if m.CompanyID == companyID && m.UserID == userID {
				out = ptr(*m)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *MembershipRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Membership, error) {
	return r.list(companyID, false)
}

func (r *MembershipRepo) ListManagers(_ context.Context, companyID string) ([]*entity.Membership, error) {
	return r.list(companyID, true)
}

func (r *MembershipRepo) list(companyID string, managersOnly bool) ([]*entity.Membership, error) {
	var list []*entity.Membership
	err := r.store.with(nil, func(st *state) error {
		for _, m := range st.memberships {
			if m.CompanyID != companyID || (managersOnly && !m.IsManager()) {
				continue
			}
			list = append(list, ptr(*m))
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, err
}
