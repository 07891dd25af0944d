package inventory

import (
	"fmt"
	"sort"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// Debit piezas que una salida toma de un lote concreto.
type Debit struct {
	LotID  string
	Pieces int64
}

// SortLots ordena lotes por RecordDate ascendente y, en empate, por Seq.
func SortLots(lots []*entity.StockRecord) {
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].RecordDate.Equal(lots[j].RecordDate) {
			return lots[i].RecordDate.Before(lots[j].RecordDate)
		}
		return lots[i].Seq < lots[j].Seq
	})
}

// AllocateFIFO reparte requested piezas sobre los lotes de entrada, del más antiguo al más nuevo.
// No modifica los lotes recibidos: devuelve los débitos a persistir en un único lote de escritura.
// Si el stock disponible no alcanza devuelve domain.ErrInsufficientStock y ningún débito.
func AllocateFIFO(lots []*entity.StockRecord, requested int64) ([]Debit, error) {
	if requested < 0 {
		return nil, fmt.Errorf("%w: solicitado %d", domain.ErrInvalidQuantity, requested)
	}
	if requested == 0 {
		return nil, nil
	}

	ordered := make([]*entity.StockRecord, 0, len(lots))
	for _, l := range lots {
		if l != nil && l.IsInbound() {
			ordered = append(ordered, l)
		}
	}
	SortLots(ordered)

	remaining := requested
	var debits []Debit
	for _, lot := range ordered {
		if remaining == 0 {
			break
		}
		available := lot.Remaining()
		if available <= 0 {
			continue
		}
		take := min(available, remaining)
		debits = append(debits, Debit{LotID: lot.ID, Pieces: take})
		remaining -= take
	}
	if remaining > 0 {
		return nil, fmt.Errorf("%w: solicitado %d, disponible %d", domain.ErrInsufficientStock, requested, requested-remaining)
	}
	return debits, nil
}

// Outstanding suma lo pendiente de todos los lotes de entrada: Σ(total − consumido).
func Outstanding(records []*entity.StockRecord) int64 {
	var sum int64
	for _, r := range records {
		if r.IsInbound() {
			sum += r.Remaining()
		}
	}
	return sum
}
