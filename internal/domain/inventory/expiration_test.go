package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
)

func TestAddMonths(t *testing.T) {
	cases := []struct {
		name   string
		in     time.Time
		months int
		want   time.Time
	}{
		{"mes simple", date(2024, 3, 15), 2, date(2024, 5, 15)},
		{"fin de mes a febrero bisiesto", date(2024, 1, 31), 1, date(2024, 2, 29)},
		{"fin de mes a febrero normal", date(2023, 1, 31), 1, date(2023, 2, 28)},
		{"cruce de año", date(2024, 11, 30), 3, date(2025, 2, 28)},
		{"doce meses", date(2024, 2, 29), 12, date(2025, 2, 28)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.want.Equal(inventory.AddMonths(tc.in, tc.months)),
				"esperado %s, obtenido %s", tc.want, inventory.AddMonths(tc.in, tc.months))
		})
	}
}

func TestExpirationDate_ConservaHora(t *testing.T) {
	rec := time.Date(2024, 8, 31, 14, 30, 0, 0, time.UTC)
	got := inventory.ExpirationDate(rec, 6)
	assert.Equal(t, time.Date(2025, 2, 28, 14, 30, 0, 0, time.UTC), got)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
