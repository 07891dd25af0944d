package inventory

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// AverageStock promedio de los totales de snapshots de la ventana, a 2 decimales. Sin datos → 0.
func AverageStock(totals []int64) decimal.Decimal {
	if len(totals) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(decimal.NewFromInt(t))
	}
	return sum.Div(decimal.NewFromInt(int64(len(totals)))).Round(2)
}

// Variation variación porcentual del stock actual frente al promedio:
// (actual − promedio) / promedio * 100, redondeada a 2 decimales. Con promedio 0 devuelve 0.
func Variation(current int64, avg decimal.Decimal) decimal.Decimal {
	if avg.IsZero() {
		return decimal.Zero
	}
	cur := decimal.NewFromInt(current)
	return cur.Sub(avg).Div(avg).Mul(hundred).Round(2)
}
