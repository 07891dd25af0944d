package ports

// Resultados usados como etiqueta en las métricas.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics puerto de instrumentación. La implementación Prometheus vive en infrastructure/metrics.
type Metrics interface {
	RecordWritten(recordType, outcome string)
	ConflictRetried()
	SnapshotProcessed(outcome string)
	NotificationDispatched(path, outcome string)
	CacheLookup(hit bool)
}

// NopMetrics descarta todas las observaciones.
type NopMetrics struct{}

func (NopMetrics) RecordWritten(string, string)          {}
func (NopMetrics) ConflictRetried()                      {}
func (NopMetrics) SnapshotProcessed(string)              {}
func (NopMetrics) NotificationDispatched(string, string) {}
func (NopMetrics) CacheLookup(bool)                      {}
