package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jhoicas/stockledger-api/internal/application/ports"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/event"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Caminos de entrega, usados como etiqueta de métricas.
const (
	PathQueued = "queued"
	PathInline = "inline"
)

// Dispatcher entrega un evento de dominio a quien genera las notificaciones.
type Dispatcher interface {
	Dispatch(ctx context.Context, e event.Event) error
}

// Publisher publica mensajes en la cola de tareas. La implementación AMQP vive en infrastructure/queue.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	// Healthy indica si la conexión con el broker está abierta.
	Healthy() bool
}

// InlineDispatcher ejecuta el handler de forma síncrona.
type InlineDispatcher struct {
	handler *Handler
}

func NewInlineDispatcher(h *Handler) *InlineDispatcher {
	return &InlineDispatcher{handler: h}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, e event.Event) error {
	return d.handler.Handle(ctx, e)
}

// QueuedDispatcher serializa el evento y lo publica; un consumidor lo procesa después.
type QueuedDispatcher struct {
	publisher Publisher
}

func NewQueuedDispatcher(p Publisher) *QueuedDispatcher {
	return &QueuedDispatcher{publisher: p}
}

func (d *QueuedDispatcher) Dispatch(ctx context.Context, e event.Event) error {
	body, err := event.Encode(e)
	if err != nil {
		return err
	}
	return d.publisher.Publish(ctx, e.Type(), body)
}

// Healthy delega en el publisher.
func (d *QueuedDispatcher) Healthy() bool {
	return d.publisher.Healthy()
}

// BreakerConfig parámetros del circuit breaker sobre la cola.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32        // fallos consecutivos para abrir el circuito
	OpenTimeout      time.Duration // tiempo abierto antes de probar de nuevo
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.Name == "" {
		c.Name = "notification-queue"
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	return c
}

// BreakerDispatcher usa la cola mientras esté sana y el circuito cerrado; en otro
// caso, o si la publicación falla, ejecuta el handler en línea. Nunca descarta un evento
// en silencio: si ambos caminos fallan devuelve domain.ErrNotificationDispatchFailed.
type BreakerDispatcher struct {
	queued  *QueuedDispatcher
	inline  Dispatcher
	cb      *gobreaker.CircuitBreaker
	metrics ports.Metrics
	log     *logger.Logger
}

// NewBreakerDispatcher construye el dispatcher. metrics puede ser nil.
func NewBreakerDispatcher(queued *QueuedDispatcher, inline Dispatcher, metrics ports.Metrics, log *logger.Logger, cfg BreakerConfig) *BreakerDispatcher {
	cfg = cfg.withDefaults()
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	l := log.Component("dispatcher")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("cambio de estado del circuito de la cola")
		},
	})
	return &BreakerDispatcher{queued: queued, inline: inline, cb: cb, metrics: metrics, log: l}
}

// State estado actual del circuito.
func (d *BreakerDispatcher) State() gobreaker.State {
	return d.cb.State()
}

func (d *BreakerDispatcher) Dispatch(ctx context.Context, e event.Event) error {
	if d.queued.Healthy() {
		_, err := d.cb.Execute(func() (interface{}, error) {
			return nil, d.queued.Dispatch(ctx, e)
		})
		if err == nil {
			d.metrics.NotificationDispatched(PathQueued, ports.OutcomeOK)
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			d.metrics.NotificationDispatched(PathQueued, ports.OutcomeRejected)
		} else {
			d.metrics.NotificationDispatched(PathQueued, ports.OutcomeError)
		}
		d.log.Warn().Err(err).Str("event", e.Type()).Msg("cola no disponible, ejecución en línea")
	}

	if err := d.inline.Dispatch(ctx, e); err != nil {
		d.metrics.NotificationDispatched(PathInline, ports.OutcomeError)
		d.log.Error().Err(err).
			Str("event", e.Type()).
			Str("company_id", e.Company()).
			Msg("notificación no entregada")
		return fmt.Errorf("%w: %v", domain.ErrNotificationDispatchFailed, err)
	}
	d.metrics.NotificationDispatched(PathInline, ports.OutcomeOK)
	return nil
}
