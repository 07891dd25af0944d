package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
)

// StockRecordRepository puerto del ledger append-only de movimientos.
type StockRecordRepository interface {
	// Create inserta el registro y completa su Seq.
	Create(ctx context.Context, record *entity.StockRecord) error
	GetByID(ctx context.Context, id string) (*entity.StockRecord, error)
	// ListOpenLots devuelve los lotes de entrada con saldo, ordenados por (record_date, seq).
	ListOpenLots(ctx context.Context, productID string) ([]*entity.StockRecord, error)
	// ConsumeLots suma los débitos a consumed_quantity en una única escritura.
	ConsumeLots(ctx context.Context, debits []inventory.Debit) error
	// RestoreLots resta los débitos de consumed_quantity en una única escritura.
	RestoreLots(ctx context.Context, debits []inventory.Debit) error
	Delete(ctx context.Context, id string) error
	// SumOutstanding Σ(total − consumido) de los lotes de entrada del producto.
	SumOutstanding(ctx context.Context, productID string) (int64, error)
	SumOutstandingByCompany(ctx context.Context, companyID string) (int64, error)
	// ListByProduct más recientes primero por (record_date, seq); limit 0 = sin límite.
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockRecord, error)
	HasRecords(ctx context.Context, productID string) (bool, error)
}

// AllocationRepository puerto de la procedencia de cada salida (qué lote cubrió qué piezas).
type AllocationRepository interface {
	CreateBatch(ctx context.Context, allocations []*entity.Allocation) error
	ListByOutbound(ctx context.Context, outboundRecordID string) ([]*entity.Allocation, error)
	DeleteByOutbound(ctx context.Context, outboundRecordID string) error
}
