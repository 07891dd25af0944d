package entity

import "time"

// StockSnapshot foto diaria del stock de un producto. Única por (empresa, producto, fecha).
type StockSnapshot struct {
	ID            string
	CompanyID     string
	ProductID     string
	SnapshotDate  time.Time // fecha truncada al día
	BoxQuantity   int64
	PieceQuantity int64
	TotalPieces   int64
	CreatedAt     time.Time
}
