package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var (
	_ repository.StockRecordRepository = (*StockRecordRepo)(nil)
	_ repository.AllocationRepository  = (*AllocationRepo)(nil)
)

const recordColumns = `id, seq, product_id, company_id, record_type, box_quantity, piece_quantity, total_pieces,
	consumed_quantity, recorded_by, record_date, expiration_date, note, created_at`

// StockRecordRepo ledger append-only sobre PostgreSQL (usable con pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

func scanRecord(row interface{ Scan(...any) error }) (*entity.StockRecord, error) {
	var rec entity.StockRecord
	err := row.Scan(&rec.ID, &rec.Seq, &rec.ProductID, &rec.CompanyID, &rec.RecordType, &rec.BoxQuantity,
		&rec.PieceQuantity, &rec.TotalPieces, &rec.ConsumedQuantity, &rec.RecordedBy, &rec.RecordDate,
		&rec.ExpirationDate, &rec.Note, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *StockRecordRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Create inserta el registro; seq lo asigna la identidad de la tabla.
func (r *StockRecordRepo) Create(ctx context.Context, rec *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (id, product_id, company_id, record_type, box_quantity, piece_quantity, total_pieces,
			consumed_quantity, recorded_by, record_date, expiration_date, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		rec.ID, rec.ProductID, rec.CompanyID, rec.RecordType, rec.BoxQuantity, rec.PieceQuantity, rec.TotalPieces,
		rec.ConsumedQuantity, rec.RecordedBy, rec.RecordDate, rec.ExpirationDate, rec.Note, rec.CreatedAt,
	).Scan(&rec.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock record: %w", err)
	}
	return nil
}

func (r *StockRecordRepo) GetByID(ctx context.Context, id string) (*entity.StockRecord, error) {
	rec, err := scanRecord(r.q.QueryRow(ctx, `SELECT `+recordColumns+` FROM stock_records WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return rec, nil
}

// ListOpenLots usa el índice (product_id, record_date, seq).
func (r *StockRecordRepo) ListOpenLots(ctx context.Context, productID string) ([]*entity.StockRecord, error) {
	return r.list(ctx, "list open lots", `
		SELECT `+recordColumns+` FROM stock_records
		WHERE product_id = $1 AND record_type = 'in' AND consumed_quantity < total_pieces
		ORDER BY record_date, seq`, productID)
}

func (r *StockRecordRepo) ConsumeLots(ctx context.Context, debits []inventory.Debit) error {
	return r.adjust(ctx, debits, 1)
}

func (r *StockRecordRepo) RestoreLots(ctx context.Context, debits []inventory.Debit) error {
	return r.adjust(ctx, debits, -1)
}

// adjust aplica todos los débitos en un único UPDATE sobre unnest. Si alguna fila
// saldría de [0, total_pieces] no se actualiza y el conteo no cuadra: la tx se aborta.
func (r *StockRecordRepo) adjust(ctx context.Context, debits []inventory.Debit, sign int64) error {
	if len(debits) == 0 {
		return nil
	}
	merged := make(map[string]int64, len(debits))
	for _, d := range debits {
		merged[d.LotID] += sign * d.Pieces
	}
	ids := make([]string, 0, len(merged))
	deltas := make([]int64, 0, len(merged))
	for id, delta := range merged {
		ids = append(ids, id)
		deltas = append(deltas, delta)
	}

	cmd, err := r.q.Exec(ctx, `
		UPDATE stock_records AS r
		SET consumed_quantity = r.consumed_quantity + d.delta
		FROM unnest($1::uuid[], $2::bigint[]) AS d(id, delta)
		WHERE r.id = d.id
		  AND r.record_type = 'in'
		  AND r.consumed_quantity + d.delta BETWEEN 0 AND r.total_pieces`,
		ids, deltas,
	)
	if err != nil {
		return fmt.Errorf("adjust consumed quantity: %w", err)
	}
	if cmd.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("adjust consumed quantity: %d de %d lotes: %w", cmd.RowsAffected(), len(ids), domain.ErrConflict)
	}
	return nil
}

func (r *StockRecordRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM stock_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stock record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *StockRecordRepo) SumOutstanding(ctx context.Context, productID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_pieces - consumed_quantity), 0)::bigint
		FROM stock_records WHERE product_id = $1 AND record_type = 'in'`, productID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum outstanding: %w", err)
	}
	return total, nil
}

func (r *StockRecordRepo) SumOutstandingByCompany(ctx context.Context, companyID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_pieces - consumed_quantity), 0)::bigint
		FROM stock_records WHERE company_id = $1 AND record_type = 'in'`, companyID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum outstanding by company: %w", err)
	}
	return total, nil
}

// ListByProduct historial, más recientes primero. LIMIT NULL equivale a LIMIT ALL.
func (r *StockRecordRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockRecord, error) {
	return r.list(ctx, "list stock records", `
		SELECT `+recordColumns+` FROM stock_records
		WHERE product_id = $1 ORDER BY record_date DESC, seq DESC LIMIT NULLIF($2::int, 0) OFFSET $3`, productID, limit, offset)
}

func (r *StockRecordRepo) HasRecords(ctx context.Context, productID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock_records WHERE product_id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has stock records: %w", err)
	}
	return exists, nil
}

// AllocationRepo procedencia de las salidas sobre PostgreSQL.
type AllocationRepo struct {
	q Querier
}

func NewAllocationRepository(q Querier) *AllocationRepo {
	return &AllocationRepo{q: q}
}

// CreateBatch inserta todas las asignaciones de una salida en una sola sentencia.
func (r *AllocationRepo) CreateBatch(ctx context.Context, allocations []*entity.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	ids := make([]string, len(allocations))
	outbound := make([]string, len(allocations))
	inbound := make([]string, len(allocations))
	pieces := make([]int64, len(allocations))
	for i, a := range allocations {
		ids[i], outbound[i], inbound[i], pieces[i] = a.ID, a.OutboundRecordID, a.InboundRecordID, a.Pieces
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_allocations (id, outbound_record_id, inbound_record_id, pieces, created_at)
		SELECT a.id, a.outbound_record_id, a.inbound_record_id, a.pieces, $5
		FROM unnest($1::uuid[], $2::uuid[], $3::uuid[], $4::bigint[]) AS a(id, outbound_record_id, inbound_record_id, pieces)`,
		ids, outbound, inbound, pieces, allocations[0].CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert allocations: %w", err)
	}
	return nil
}

func (r *AllocationRepo) ListByOutbound(ctx context.Context, outboundRecordID string) ([]*entity.Allocation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, outbound_record_id, inbound_record_id, pieces, created_at
		FROM stock_allocations WHERE outbound_record_id = $1 ORDER BY created_at, id`, outboundRecordID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Allocation
	for rows.Next() {
		var a entity.Allocation
		if err := rows.Scan(&a.ID, &a.OutboundRecordID, &a.InboundRecordID, &a.Pieces, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

func (r *AllocationRepo) DeleteByOutbound(ctx context.Context, outboundRecordID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_allocations WHERE outbound_record_id = $1`, outboundRecordID); err != nil {
		return fmt.Errorf("delete allocations: %w", err)
	}
	return nil
}
