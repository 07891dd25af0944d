package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var (
	_ repository.StockRecordRepository = (*StockRecordRepo)(nil)
	_ repository.AllocationRepository  = (*AllocationRepo)(nil)
)

// StockRecordRepo ledger en memoria.
type StockRecordRepo struct {
	store *Store
	tx    *state
}

// NewStockRecordRepository construye el repositorio fuera de transacción.
func NewStockRecordRepository(store *Store) *StockRecordRepo {
	return &StockRecordRepo{store: store}
}

func (r *StockRecordRepo) Create(_ context.Context, rec *entity.StockRecord) error {
	return r.store.with(r.tx, func(st *state) error {
		if _, ok := st.products[rec.ProductID]; !ok {
			return domain.ErrNotFound
		}
		st.seq++
		rec.Seq = st.seq
		st.records[rec.ID] = ptr(*rec)
		return nil
	})
}

func (r *StockRecordRepo) GetByID(_ context.Context, id string) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := r.store.with(r.tx, func(st *state) error {
		if rec, ok := st.records[id]; ok {
			out = ptr(*rec)
		}
		return nil
	})
	return out, err
}

func (r *StockRecordRepo) ListOpenLots(_ context.Context, productID string) ([]*entity.StockRecord, error) {
	var lots []*entity.StockRecord
	err := r.store.with(r.tx, func(st *state) error {
		for _, rec := range st.records {
			if rec.ProductID == productID && rec.IsInbound() && rec.Remaining() > 0 {
				lots = append(lots, ptr(*rec))
			}
		}
		return nil
	})
	inventory.SortLots(lots)
	return lots, err
}

func (r *StockRecordRepo) ConsumeLots(_ context.Context, debits []inventory.Debit) error {
	return r.adjust(debits, 1)
}

func (r *StockRecordRepo) RestoreLots(_ context.Context, debits []inventory.Debit) error {
	return r.adjust(debits, -1)
}

// adjust valida todos los débitos antes de aplicar ninguno, igual que una única sentencia UPDATE.
func (r *StockRecordRepo) adjust(debits []inventory.Debit, sign int64) error {
	return r.store.with(r.tx, func(st *state) error {
		next := make(map[string]int64, len(debits))
		for _, d := range debits {
			lot, ok := st.records[d.LotID]
			if !ok || !lot.IsInbound() {
				return fmt.Errorf("lote %s: %w", d.LotID, domain.ErrNotFound)
			}
			cur, seen := next[d.LotID]
			if !seen {
				cur = lot.ConsumedQuantity
			}
			cur += sign * d.Pieces
			if cur < 0 || cur > lot.TotalPieces {
				return fmt.Errorf("lote %s: consumo %d fuera de rango [0, %d]", d.LotID, cur, lot.TotalPieces)
			}
			next[d.LotID] = cur
		}
		for id, consumed := range next {
			st.records[id].ConsumedQuantity = consumed
		}
		return nil
	})
}

func (r *StockRecordRepo) Delete(_ context.Context, id string) error {
	return r.store.with(r.tx, func(st *state) error {
		if _, ok := st.records[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.records, id)
		return nil
	})
}

func (r *StockRecordRepo) SumOutstanding(_ context.Context, productID string) (int64, error) {
	var sum int64
	err := r.store.with(r.tx, func(st *state) error {
		for _, rec := range st.records {
			if rec.ProductID == productID {
				sum += rec.Remaining()
			}
		}
		return nil
	})
	return sum, err
}

func (r *StockRecordRepo) SumOutstandingByCompany(_ context.Context, companyID string) (int64, error) {
	var sum int64
	err := r.store.with(r.tx, func(st *state) error {
		for _, rec := range st.records {
			if rec.CompanyID == companyID {
				sum += rec.Remaining()
			}
		}
		return nil
	})
	return sum, err
}

func (r *StockRecordRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.StockRecord, error) {
	var list []*entity.StockRecord
	err := r.store.with(r.tx, func(st *state) error {
		for _, rec := range st.records {
			if rec.ProductID == productID {
				list = append(list, ptr(*rec))
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].RecordDate.Equal(list[j].RecordDate) {
			return list[i].RecordDate.After(list[j].RecordDate)
		}
		return list[i].Seq > list[j].Seq
	})
	return paginate(list, limit, offset), err
}

func (r *StockRecordRepo) HasRecords(_ context.Context, productID string) (bool, error) {
	var found bool
	err := r.store.with(r.tx, func(st *state) error {
		for _, rec := range st.records {
			if rec.ProductID == productID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

// AllocationRepo procedencia de salidas en memoria.
type AllocationRepo struct {
	store *Store
	tx    *state
}

// NewAllocationRepository construye el repositorio fuera de transacción.
func NewAllocationRepository(store *Store) *AllocationRepo {
	return &AllocationRepo{store: store}
}

func (r *AllocationRepo) CreateBatch(_ context.Context, allocations []*entity.Allocation) error {
	return r.store.with(r.tx, func(st *state) error {
		for _, a := range allocations {
			st.allocations[a.ID] = ptr(*a)
		}
		return nil
	})
}

func (r *AllocationRepo) ListByOutbound(_ context.Context, outboundRecordID string) ([]*entity.Allocation, error) {
	var list []*entity.Allocation
	err := r.store.with(r.tx, func(st *state) error {
		for _, a := range st.allocations {
			if a.OutboundRecordID == outboundRecordID {
				list = append(list, ptr(*a))
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, err
}

func (r *AllocationRepo) DeleteByOutbound(_ context.Context, outboundRecordID string) error {
	return r.store.with(r.tx, func(st *state) error {
		for id, a := range st.allocations {
			if a.OutboundRecordID == outboundRecordID {
				delete(st.allocations, id)
			}
		}
		return nil
	})
}
