package entity

import "time"

// Allocation registra de qué lote de entrada tomó piezas un registro de salida.
// Permite revertir una salida devolviendo las piezas exactamente a los mismos lotes.
type Allocation struct {
	ID               string
	OutboundRecordID string
	InboundRecordID  string
	Pieces           int64
	CreatedAt        time.Time
}
