package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// SnapshotRepository puerto de la serie diaria de snapshots de stock.
type SnapshotRepository interface {
	// Upsert crea o reemplaza el snapshot de (empresa, producto, fecha).
	Upsert(ctx context.Context, snapshot *entity.StockSnapshot) error
	Get(ctx context.Context, companyID, productID string, date time.Time) (*entity.StockSnapshot, error)
	// ListTotalsInRange totales de los snapshots del producto con fecha en [from, to].
	ListTotalsInRange(ctx context.Context, productID string, from, to time.Time) ([]int64, error)
	// DeleteOlderThan borra los snapshots con fecha anterior a cutoff y devuelve cuántos.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
