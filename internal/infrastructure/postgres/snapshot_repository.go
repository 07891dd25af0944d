package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo serie diaria de snapshots. snapshot_date es DATE.
type SnapshotRepo struct {
	q Querier
}

func NewSnapshotRepository(q Querier) *SnapshotRepo {
	return &SnapshotRepo{q: q}
}

// Upsert ON CONFLICT sobre (company_id, product_id, snapshot_date): conserva id y created_at.
func (r *SnapshotRepo) Upsert(ctx context.Context, s *entity.StockSnapshot) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_snapshots (id, company_id, product_id, snapshot_date, box_quantity, piece_quantity, total_pieces, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (company_id, product_id, snapshot_date)
		DO UPDATE SET box_quantity = EXCLUDED.box_quantity,
		              piece_quantity = EXCLUDED.piece_quantity,
		              total_pieces = EXCLUDED.total_pieces`,
		s.ID, s.CompanyID, s.ProductID, s.SnapshotDate, s.BoxQuantity, s.PieceQuantity, s.TotalPieces, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) Get(ctx context.Context, companyID, productID string, date time.Time) (*entity.StockSnapshot, error) {
	var s entity.StockSnapshot
	err := r.q.QueryRow(ctx, `
		SELECT id, company_id, product_id, snapshot_date, box_quantity, piece_quantity, total_pieces, created_at
		FROM stock_snapshots WHERE company_id = $1 AND product_id = $2 AND snapshot_date = $3`,
		companyID, productID, date,
	).Scan(&s.ID, &s.CompanyID, &s.ProductID, &s.SnapshotDate, &s.BoxQuantity, &s.PieceQuantity, &s.TotalPieces, &s.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &s, nil
}

func (r *SnapshotRepo) ListTotalsInRange(ctx context.Context, productID string, from, to time.Time) ([]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT total_pieces FROM stock_snapshots
		WHERE product_id = $1 AND snapshot_date BETWEEN $2 AND $3
		ORDER BY snapshot_date`, productID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list snapshot totals: %w", err)
	}
	defer rows.Close()
	var totals []int64
	for rows.Next() {
		var t int64
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan snapshot total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *SnapshotRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM stock_snapshots WHERE snapshot_date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge snapshots: %w", err)
	}
	return cmd.RowsAffected(), nil
}
