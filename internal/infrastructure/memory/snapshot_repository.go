package memory

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

const dateLayout = "2006-01-02"

// SnapshotRepo serie diaria de snapshots en memoria.
type SnapshotRepo struct {
	store *Store
}

// NewSnapshotRepository construye el repositorio.
func NewSnapshotRepository(store *Store) *SnapshotRepo {
	return &SnapshotRepo{store: store}
}

func snapshotKey(companyID, productID string, date time.Time) string {
	return companyID + "|" + productID + "|" + date.Format(dateLayout)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Upsert conserva ID y CreatedAt del snapshot existente y reemplaza las cantidades.
func (r *SnapshotRepo) Upsert(_ context.Context, snap *entity.StockSnapshot) error {
	return r.store.with(nil, func(st *state) error {
		key := snapshotKey(snap.CompanyID, snap.ProductID, snap.SnapshotDate)
		next := ptr(*snap)
		next.SnapshotDate = truncateDay(snap.SnapshotDate)
		if prev, ok := st.snapshots[key]; ok {
			next.ID = prev.ID
			next.CreatedAt = prev.CreatedAt
		}
		st.snapshots[key] = next
		return nil
	})
}

func (r *SnapshotRepo) Get(_ context.Context, companyID, productID string, date time.Time) (*entity.StockSnapshot, error) {
	var out *entity.StockSnapshot
	err := r.store.with(nil, func(st *state) error {
		if s, ok := st.snapshots[snapshotKey(companyID, productID, date)]; ok {
			out = ptr(*s)
		}
		return nil
	})
	return out, err
}

func (r *SnapshotRepo) ListTotalsInRange(_ context.Context, productID string, from, to time.Time) ([]int64, error) {
	from, to = truncateDay(from), truncateDay(to)
	var totals []int64
	err := r.store.with(nil, func(st *state) error {
		for _, s := range st.snapshots {
			if s.ProductID != productID {
				continue
			}
			if s.SnapshotDate.Before(from) || s.SnapshotDate.After(to) {
				continue
			}
			totals = append(totals, s.TotalPieces)
		}
		return nil
	})
	return totals, err
}

func (r *SnapshotRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	cutoff = truncateDay(cutoff)
	var n int64
	err := r.store.with(nil, func(st *state) error {
		for k, s := range st.snapshots {
			if s.SnapshotDate.Before(cutoff) {
				delete(st.snapshots, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

// Count número de snapshots guardados.
func (r *SnapshotRepo) Count() int {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.data.snapshots)
}
