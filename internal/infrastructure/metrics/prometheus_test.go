package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/ports"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/metrics"
)

func TestPrometheus_CuentaPorEtiquetas(t *testing.T) {
	m := metrics.New()
	m.RecordWritten("out", ports.OutcomeOK)
	m.RecordWritten("out", ports.OutcomeOK)
	m.RecordWritten("out", ports.OutcomeRejected)
	m.ConflictRetried()
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	n, err := testutil.GatherAndCount(m.Registry(), "stockledger_stock_records_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "dos series: out/ok y out/rejected")

	n, err = testutil.GatherAndCount(m.Registry(), "stockledger_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testutil.GatherAndCount(m.Registry(), "stockledger_concurrency_conflicts_retried_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
