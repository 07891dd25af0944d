package entity

import "time"

// Tipos de registro del ledger.
const (
	RecordTypeIn  = "in"
	RecordTypeOut = "out"
)

// StockRecord es un asiento inmutable del ledger de stock.
// Un registro "in" es un lote: ConsumedQuantity lleva cuánto de él ya se asignó a salidas.
// Solo el motor de consumo FIFO modifica ConsumedQuantity.
type StockRecord struct {
	ID               string
	Seq              int64 // monotónico, desempata lotes con el mismo RecordDate
	ProductID        string
	CompanyID        string
	RecordType       string
	BoxQuantity      int64
	PieceQuantity    int64
	TotalPieces      int64 // congelado al crear el registro
	ConsumedQuantity int64
	RecordedBy       string
	RecordDate       time.Time
	ExpirationDate   *time.Time // solo para "in"
	Note             string
	CreatedAt        time.Time
}

// IsInbound indica si el registro es un lote de entrada.
func (r *StockRecord) IsInbound() bool { return r.RecordType == RecordTypeIn }

// Remaining devuelve las piezas aún disponibles del lote (0 para salidas).
func (r *StockRecord) Remaining() int64 {
	if !r.IsInbound() {
		return 0
	}
	return r.TotalPieces - r.ConsumedQuantity
}

// StockLevel stock actual expresado en cajas/piezas y total de piezas.
type StockLevel struct {
	BoxQuantity   int64
	PieceQuantity int64
	TotalPieces   int64
}
