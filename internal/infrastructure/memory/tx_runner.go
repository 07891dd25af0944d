package memory

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner transacciones serializables en memoria.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run toma el mutex del almacén durante toda la transacción, ejecuta fn sobre una copia
// y la publica solo si fn termina sin error.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	recordRepo repository.StockRecordRepository,
	allocationRepo repository.AllocationRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx := r.store.data.clone()
	if err := fn(
		&ProductRepo{store: r.store, tx: tx},
		&StockRecordRepo{store: r.store, tx: tx},
		&AllocationRepo{store: r.store, tx: tx},
	); err != nil {
		return err
	}
	r.store.data = tx
	return nil
}
