package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var day0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func lot(id string, seq int64, day int, total, consumed int64) *entity.StockRecord {
	return &entity.StockRecord{
		ID:               id,
		Seq:              seq,
		RecordType:       entity.RecordTypeIn,
		TotalPieces:      total,
		ConsumedQuantity: consumed,
		RecordDate:       day0.AddDate(0, 0, day),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// AllocateFIFO
// ──────────────────────────────────────────────────────────────────────────────

// L1 (día 1, 50) y L2 (día 2, 30); salida de 60 → L1 consume 50, L2 consume 10.
func TestAllocateFIFO_LoteMasAntiguoPrimero(t *testing.T) {
	lots := []*entity.StockRecord{lot("L2", 2, 2, 30, 0), lot("L1", 1, 1, 50, 0)}

	debits, err := inventory.AllocateFIFO(lots, 60)
	require.NoError(t, err)
	assert.Equal(t, []inventory.Debit{{LotID: "L1", Pieces: 50}, {LotID: "L2", Pieces: 10}}, debits)

	// La entrada no se modifica.
	assert.Equal(t, int64(0), lots[0].ConsumedQuantity)
	assert.Equal(t, "L2", lots[0].ID)
}

func TestAllocateFIFO_EmpateDeFechaUsaSeq(t *testing.T) {
	lots := []*entity.StockRecord{lot("B", 8, 1, 10, 0), lot("A", 7, 1, 10, 0)}

	debits, err := inventory.AllocateFIFO(lots, 12)
	require.NoError(t, err)
	assert.Equal(t, []inventory.Debit{{LotID: "A", Pieces: 10}, {LotID: "B", Pieces: 2}}, debits)
}

func TestAllocateFIFO_SaltaLotesAgotadosYSalidas(t *testing.T) {
	out := &entity.StockRecord{ID: "O1", RecordType: entity.RecordTypeOut, TotalPieces: 99, RecordDate: day0}
	lots := []*entity.StockRecord{out, lot("L1", 1, 1, 20, 20), lot("L2", 2, 2, 20, 5)}

	debits, err := inventory.AllocateFIFO(lots, 15)
	require.NoError(t, err)
	assert.Equal(t, []inventory.Debit{{LotID: "L2", Pieces: 15}}, debits)
}

func TestAllocateFIFO_StockInsuficiente(t *testing.T) {
	lots := []*entity.StockRecord{lot("L1", 1, 1, 25, 0), lot("L2", 2, 2, 15, 0)}

	debits, err := inventory.AllocateFIFO(lots, 41)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, debits, "no debe devolver débitos parciales")
}

func TestAllocateFIFO_CeroEsNoOp(t *testing.T) {
	debits, err := inventory.AllocateFIFO(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, debits)
}

func TestAllocateFIFO_NegativoEsInvalido(t *testing.T) {
	_, err := inventory.AllocateFIFO([]*entity.StockRecord{lot("L1", 1, 1, 5, 0)}, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestOutstanding(t *testing.T) {
	records := []*entity.StockRecord{
		lot("L1", 1, 1, 50, 50),
		lot("L2", 2, 2, 30, 10),
		{ID: "O1", RecordType: entity.RecordTypeOut, TotalPieces: 60},
	}
	assert.Equal(t, int64(20), inventory.Outstanding(records))
}
