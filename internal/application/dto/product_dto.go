package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=200"`
	Category      string `json:"category" validate:"max=100"`
	Unit          string `json:"unit" validate:"required,oneof=count ml g kg per"`
	PiecesPerBox  int64  `json:"pieces_per_box" validate:"required,min=1"`
	StorageMonths int    `json:"storage_months" validate:"required,min=1,max=600"`
}

// UpdateProductRequest entrada para actualizar un producto. El stock solo cambia vía registros.
type UpdateProductRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	Category      *string `json:"category" validate:"omitempty,max=100"`
	Unit          *string `json:"unit" validate:"omitempty,oneof=count ml g kg per"`
	PiecesPerBox  *int64  `json:"pieces_per_box" validate:"omitempty,min=1"`
	StorageMonths *int    `json:"storage_months" validate:"omitempty,min=1,max=600"`
}

// ProductResponse salida de un producto con su stock en cajas y piezas.
type ProductResponse struct {
	ID                 string          `json:"id"`
	CompanyID          string          `json:"company_id"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Unit               string          `json:"unit"`
	PiecesPerBox       int64           `json:"pieces_per_box"`
	StorageMonths      int             `json:"storage_months"`
	CurrentStock       int64           `json:"current_stock"`
	BoxQuantity        int64           `json:"box_quantity"`
	PieceQuantity      int64           `json:"piece_quantity"`
	AvgLast30DaysStock decimal.Decimal `json:"avg_last_30_days_stock"`
	Variation          decimal.Decimal `json:"variation"`
	Version            int64           `json:"version"`
	CreatedBy          string          `json:"created_by"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
