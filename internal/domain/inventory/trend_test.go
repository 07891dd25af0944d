package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
)

func TestVariation(t *testing.T) {
	cases := []struct {
		name    string
		current int64
		avg     decimal.Decimal
		want    string
	}{
		{"sube 20%", 120, decimal.NewFromInt(100), "20"},
		{"baja 25%", 75, decimal.NewFromInt(100), "-25"},
		{"promedio cero", 120, decimal.Zero, "0"},
		{"redondeo a 2 decimales", 10, decimal.NewFromInt(3), "233.33"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := inventory.Variation(tc.current, tc.avg)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "esperado %s, obtenido %s", tc.want, got)
		})
	}
}

func TestAverageStock(t *testing.T) {
	assert.True(t, inventory.AverageStock(nil).IsZero())
	assert.True(t, decimal.RequireFromString("100").Equal(inventory.AverageStock([]int64{90, 110, 100})))
	assert.True(t, decimal.RequireFromString("33.33").Equal(inventory.AverageStock([]int64{0, 0, 100})))
}
