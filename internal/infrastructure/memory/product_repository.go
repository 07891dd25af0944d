package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos en memoria.
type ProductRepo struct {
	store *Store
	tx    *state
}

// NewProductRepository construye el repositorio fuera de transacción.
func NewProductRepository(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.store.with(r.tx, func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		st.products[p.ID] = ptr(*p)
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.store.with(r.tx, func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = ptr(*p)
		}
		return nil
	})
	return out, err
}

// GetForUpdate dentro de una transacción el mutex del almacén ya da exclusión.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	return r.store.with(r.tx, func(st *state) error {
		if _, ok := st.products[p.ID]; !ok {
			return domain.ErrNotFound
		}
		st.products[p.ID] = ptr(*p)
		return nil
	})
}

func (r *ProductRepo) TouchStock(_ context.Context, id string, currentStock int64, now time.Time) error {
	return r.store.with(r.tx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		p.CurrentStock = currentStock
		p.Version++
		p.UpdatedAt = now
		return nil
	})
}

func (r *ProductRepo) UpdateRollup(_ context.Context, rollup entity.ProductRollup, now time.Time) error {
	return r.store.with(r.tx, func(st *state) error {
		p, ok := st.products[rollup.ProductID]
		if !ok {
			return domain.ErrNotFound
		}
		p.AvgLast30DaysStock = rollup.AvgLast30DaysStock
		p.Variation = rollup.Variation
		p.UpdatedAt = now
		return nil
	})
}

func (r *ProductRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Product, error) {
	var list []*entity.Product
	err := r.store.with(r.tx, func(st *state) error {
		for _, p := range st.products {
			if p.CompanyID == companyID {
				list = append(list, ptr(*p))
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return paginate(list, limit, offset), err
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
