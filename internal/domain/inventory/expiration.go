package inventory

import "time"

// AddMonths suma meses de calendario. Si el día no existe en el mes destino
// se ajusta al último día de ese mes (31/01 + 1 mes = 28/02 o 29/02).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	first := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// ExpirationDate fecha de vencimiento de un lote: fecha de registro + meses de almacenamiento.
func ExpirationDate(recordDate time.Time, storageMonths int) time.Time {
	return AddMonths(recordDate, storageMonths)
}
