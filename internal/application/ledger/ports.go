package ledger

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback completo: ningún registro ni débito parcial sobrevive.
// Los conflictos de bloqueo (lock timeout, deadlock, serialización) llegan como domain.ErrConcurrencyConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		recordRepo repository.StockRecordRepository,
		allocationRepo repository.AllocationRepository,
	) error) error
}
