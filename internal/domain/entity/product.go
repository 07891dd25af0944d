package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unidades de medida admitidas para un producto.
const (
	UnitCount   = "count"
	UnitML      = "ml"
	UnitGram    = "g"
	UnitKg      = "kg"
	UnitPercent = "per"
)

// ValidUnit indica si la unidad pertenece al catálogo.
func ValidUnit(u string) bool {
	switch u {
	case UnitCount, UnitML, UnitGram, UnitKg, UnitPercent:
		return true
	}
	return false
}

// Product representa un producto de una empresa (multi-tenant).
// CurrentStock, AvgLast30DaysStock y Variation son rollups: siempre se pueden
// recalcular desde los StockRecord, no son fuente de verdad.
type Product struct {
	ID                 string
	CompanyID          string
	Name               string
	Category           string
	Unit               string
	PiecesPerBox       int64 // >= 1
	StorageMonths      int   // >= 1, deriva la fecha de vencimiento de cada lote
	CurrentStock       int64
	AvgLast30DaysStock decimal.Decimal
	Variation          decimal.Decimal // porcentaje, 2 decimales
	Version            int64           // se incrementa en cada escritura del ledger
	CreatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProductRollup valores de tendencia que escribe el agregador diario.
// current_stock no forma parte: solo el ledger lo escribe, bajo el bloqueo del producto.
type ProductRollup struct {
	ProductID          string
	AvgLast30DaysStock decimal.Decimal
	Variation          decimal.Decimal
}
