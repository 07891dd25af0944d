package dto

import "time"

// StockRecordRequest entrada para registrar una entrada o salida de stock.
type StockRecordRequest struct {
	ProductID     string `json:"product_id" validate:"required,uuid"`
	BoxQuantity   int64  `json:"box_quantity" validate:"min=0"`
	PieceQuantity int64  `json:"piece_quantity" validate:"min=0"`
	Note          string `json:"note" validate:"max=500"`
}

// StockRecordResponse salida de un registro del ledger.
type StockRecordResponse struct {
	ID               string     `json:"id"`
	ProductID        string     `json:"product_id"`
	RecordType       string     `json:"record_type"`
	BoxQuantity      int64      `json:"box_quantity"`
	PieceQuantity    int64      `json:"piece_quantity"`
	TotalPieces      int64      `json:"total_pieces"`
	ConsumedQuantity int64      `json:"consumed_quantity"`
	RecordedBy       string     `json:"recorded_by"`
	RecordDate       time.Time  `json:"record_date"`
	ExpirationDate   *time.Time `json:"expiration_date,omitempty"`
	Note             string     `json:"note,omitempty"`
}

// StockRecordListResponse lista paginada de registros de un producto.
type StockRecordListResponse struct {
	Items []StockRecordResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// StockLevelResponse stock vivo de un producto.
type StockLevelResponse struct {
	ProductID     string `json:"product_id"`
	BoxQuantity   int64  `json:"box_quantity"`
	PieceQuantity int64  `json:"piece_quantity"`
	TotalPieces   int64  `json:"total_pieces"`
}
