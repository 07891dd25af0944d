// Package metrics implementa ports.Metrics con Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stockledger-api/internal/application/ports"
)

const namespace = "stockledger"

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus contadores del ledger, el job de snapshots, el dispatcher y la caché.
type Prometheus struct {
	reg           *prometheus.Registry
	records       *prometheus.CounterVec
	conflicts     prometheus.Counter
	snapshots     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	cache         *prometheus.CounterVec
}

// New registra los colectores en un registro propio, junto con los de Go y el proceso.
func New() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Prometheus{
		reg: reg,
		records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_records_total",
			Help:      "Registros de stock por tipo y resultado.",
		}, []string{"record_type", "outcome"}),
		conflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concurrency_conflicts_retried_total",
			Help:      "Reintentos por conflicto de concurrencia.",
		}),
		snapshots: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_processed_total",
			Help:      "Productos procesados por el job de snapshots.",
		}, []string{"outcome"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dispatched_total",
			Help:      "Eventos despachados por camino (queued/inline) y resultado.",
		}, []string{"path", "outcome"}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Lecturas de caché por acierto.",
		}, []string{"hit"}),
	}
}

func (p *Prometheus) RecordWritten(recordType, outcome string) {
	p.records.WithLabelValues(recordType, outcome).Inc()
}

func (p *Prometheus) ConflictRetried() { p.conflicts.Inc() }

func (p *Prometheus) SnapshotProcessed(outcome string) {
	p.snapshots.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) NotificationDispatched(path, outcome string) {
	p.notifications.WithLabelValues(path, outcome).Inc()
}

func (p *Prometheus) CacheLookup(hit bool) {
	p.cache.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

// Registry registro subyacente.
func (p *Prometheus) Registry() *prometheus.Registry { return p.reg }

// Handler expone el registro en formato de exposición de Prometheus.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}
