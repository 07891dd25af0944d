package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

var volatileThreshold = decimal.NewFromInt(10)

const shortageThreshold = 100

// ReportRepo consultas de reportes sobre el estado en memoria.
type ReportRepo struct {
	store *Store
}

// NewReportRepository construye el repositorio.
func NewReportRepository(store *Store) *ReportRepo {
	return &ReportRepo{store: store}
}

func (r *ReportRepo) DailyFlow(_ context.Context, companyID string, from, to time.Time, loc *time.Location) ([]repository.DailyFlowResult, error) {
	type key struct {
		day        string
		recordType string
	}
	sums := map[key]int64{}
	days := map[string]time.Time{}
	err := r.store.with(nil, func(st *state) error {
		for _, rec := range st.records {
			if rec.CompanyID != companyID || rec.RecordDate.Before(from) || !rec.RecordDate.Before(to) {
				continue
			}
			d := truncateDay(rec.RecordDate.In(loc))
			k := key{d.Format(dateLayout), rec.RecordType}
			sums[k] += rec.TotalPieces
			days[k.day] = d
		}
		return nil
	})
	out := make([]repository.DailyFlowResult, 0, len(sums))
	for k, v := range sums {
		out = append(out, repository.DailyFlowResult{Day: days[k.day], RecordType: k.recordType, TotalPieces: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].RecordType < out[j].RecordType
	})
	return out, err
}

func (r *ReportRepo) LatestSnapshotTotal(_ context.Context, companyID string, onOrBefore time.Time) (int64, bool, error) {
	limit := truncateDay(onOrBefore)
	var (
		latest time.Time
		total  int64
		found  bool
	)
	err := r.store.with(nil, func(st *state) error {
		for _, s := range st.snapshots {
			if s.CompanyID != companyID || s.SnapshotDate.After(limit) {
				continue
			}
			switch {
			case !found || s.SnapshotDate.After(latest):
				latest, total, found = s.SnapshotDate, s.TotalPieces, true
			case s.SnapshotDate.Equal(latest):
				total += s.TotalPieces
			}
		}
		return nil
	})
	return total, found, err
}

func (r *ReportRepo) CategoryComposition(_ context.Context, companyID string) ([]repository.CategoryResult, error) {
	byCategory := map[string]*repository.CategoryResult{}
	err := r.store.with(nil, func(st *state) error {
		for _, p := range st.products {
			if p.CompanyID != companyID {
				continue
			}
			c, ok := byCategory[p.Category]
			if !ok {
				c = &repository.CategoryResult{Category: p.Category}
				byCategory[p.Category] = c
			}
			c.ProductCount++
		}
		for _, rec := range st.records {
			if rec.CompanyID != companyID {
				continue
			}
			if p, ok := st.products[rec.ProductID]; ok {
				byCategory[p.Category].TotalPieces += rec.Remaining()
			}
		}
		return nil
	})
	out := make([]repository.CategoryResult, 0, len(byCategory))
	for _, c := range byCategory {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPieces != out[j].TotalPieces {
			return out[i].TotalPieces > out[j].TotalPieces
		}
		return out[i].Category < out[j].Category
	})
	return out, err
}

func (r *ReportRepo) ListProducts(_ context.Context, f repository.ProductListFilter) ([]repository.ProductListResult, int, error) {
	var rows []repository.ProductListResult
	var createdAt = map[string]time.Time{}
	err := r.store.with(nil, func(st *state) error {
		outCount := map[string]int64{}
		for _, rec := range st.records {
			if rec.CompanyID == f.CompanyID && rec.RecordType == entity.RecordTypeOut && !rec.RecordDate.Before(f.OutSince) {
				outCount[rec.ProductID]++
			}
		}
		for _, p := range st.products {
			if p.CompanyID != f.CompanyID {
				continue
			}
			row := repository.ProductListResult{
				ID:        p.ID,
				Name:      p.Name,
				Category:  p.Category,
				Unit:      p.Unit,
				Stock:     p.CurrentStock,
				Variation: p.Variation,
				OutCount:  outCount[p.ID],
			}
			switch f.FilterType {
			case repository.FilterAll, "":
			case repository.FilterShortage:
				if row.Stock >= shortageThreshold {
					continue
				}
			case repository.FilterUnpopular:
				if row.OutCount != 0 {
					continue
				}
			case repository.FilterVolatile:
				if row.Variation.Abs().LessThanOrEqual(volatileThreshold) {
					continue
				}
			default:
				return domain.ErrInvalidInput
			}
			rows = append(rows, row)
			createdAt[p.ID] = p.CreatedAt
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(rows, func(i, j int) bool {
		ci, cj := createdAt[rows[i].ID], createdAt[rows[j].ID]
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return rows[i].ID < rows[j].ID
	})
	return paginate(rows, f.Limit, f.Offset), len(rows), nil
}
