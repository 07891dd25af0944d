// Package queue transporta los eventos de dominio por RabbitMQ (AMQP 0-9-1).
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/stockledger-api/internal/application/notify"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

var _ notify.Publisher = (*Publisher)(nil)

var (
	// ErrNacked el broker rechazó el mensaje.
	ErrNacked = errors.New("amqp: mensaje rechazado por el broker")
	// ErrUnroutable ninguna cola enlazada aceptó el mensaje.
	ErrUnroutable = errors.New("amqp: mensaje sin cola de destino")
)

// Config conexión y topología.
type Config struct {
	URL            string
	Exchange       string // topic, durable
	Queue          string // cola durable del worker de notificaciones
	Prefetch       int
	ConfirmTimeout time.Duration // espera máxima por el ack del broker
}

func (c Config) withDefaults() Config {
	if c.Exchange == "" {
		c.Exchange = "stockledger.events"
	}
	if c.Queue == "" {
		c.Queue = "stockledger.notifications"
	}
	if c.Prefetch <= 0 {
		c.Prefetch = 16
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = 5 * time.Second
	}
	return c
}

func open(cfg Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declarar exchange %s: %w", cfg.Exchange, err)
	}
	return conn, ch, nil
}

// declareQueue declara la cola durable y la enlaza al exchange con bindingKeys ("#" si no hay).
// La declaran publicador y consumidor: un evento publicado antes de que arranque el worker
// queda en la cola.
func declareQueue(ch *amqp.Channel, cfg Config, bindingKeys ...string) (string, error) {
	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return "", fmt.Errorf("declarar cola %s: %w", cfg.Queue, err)
	}
	if len(bindingKeys) == 0 {
		bindingKeys = []string{"#"}
	}
	for _, key := range bindingKeys {
		if err := ch.QueueBind(q.Name, key, cfg.Exchange, false, nil); err != nil {
			return "", fmt.Errorf("enlazar cola %s a %s: %w", q.Name, key, err)
		}
	}
	return q.Name, nil
}

// Publisher publica eventos persistentes en el exchange con confirmación del broker.
// Publish solo devuelve nil cuando el broker confirmó el mensaje en una cola.
type Publisher struct {
	mu       sync.Mutex // un amqp.Channel no admite publicaciones concurrentes
	conn     *amqp.Connection
	ch       *amqp.Channel
	returns  chan amqp.Return
	exchange string
	timeout  time.Duration
}

// NewPublisher abre la conexión, declara exchange y cola y activa publisher confirms.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg = cfg.withDefaults()
	conn, ch, err := open(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := declareQueue(ch, cfg); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp confirm: %w", err)
	}
	returns := ch.NotifyReturn(make(chan amqp.Return, 1))
	return &Publisher{conn: conn, ch: ch, returns: returns, exchange: cfg.Exchange, timeout: cfg.ConfirmTimeout}, nil
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, routingKey, true, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("amqp publish %s: %w", routingKey, err)
	}
	if err := awaitConfirm(ctx, confirm, p.returns, p.timeout); err != nil {
		return fmt.Errorf("amqp publish %s: %w", routingKey, err)
	}
	return nil
}

// confirmation lo que el publicador necesita de *amqp.DeferredConfirmation.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// awaitConfirm espera el ack del broker. Un nack, un basic.return o el vencimiento de
// timeout son errores. El broker entrega el basic.return antes del ack del mismo mensaje.
func awaitConfirm(ctx context.Context, c confirmation, returns <-chan amqp.Return, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	acked, err := c.WaitContext(wctx)
	if err != nil {
		return fmt.Errorf("esperando confirmación: %w", err)
	}
	select {
	case r := <-returns:
		return fmt.Errorf("%w: %d %s", ErrUnroutable, r.ReplyCode, r.ReplyText)
	default:
	}
	if !acked {
		return ErrNacked
	}
	return nil
}

// Healthy conexión y canal abiertos.
func (p *Publisher) Healthy() bool {
	return p != nil && !p.conn.IsClosed() && !p.ch.IsClosed()
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}

// HandlerFunc procesa el cuerpo de un mensaje.
type HandlerFunc func(ctx context.Context, body []byte) error

// Consumer consume la cola de notificaciones con ack manual.
type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   *logger.Logger
}

// NewConsumer declara la cola, la enlaza a bindingKeys y fija el prefetch.
func NewConsumer(cfg Config, log *logger.Logger, bindingKeys ...string) (*Consumer, error) {
	cfg = cfg.withDefaults()
	conn, ch, err := open(cfg)
	if err != nil {
		return nil, err
	}
	queue, err := declareQueue(ch, cfg, bindingKeys...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp qos: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: queue, log: log.Component("consumer")}, nil
}

// Run entrega cada mensaje a handle hasta que ctx se cancele o el canal se cierre.
// Un fallo se reencola una vez; si el mensaje ya venía reentregado se descarta.
func (c *Consumer) Run(ctx context.Context, handle HandlerFunc) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume %s: %w", c.queue, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp: canal de entregas cerrado")
			}
			if err := handle(ctx, d.Body); err != nil {
				requeue := !d.Redelivered
				c.log.Error().Err(err).
					Str("routing_key", d.RoutingKey).
					Bool("requeue", requeue).
					Msg("mensaje no procesado")
				if nerr := d.Nack(false, requeue); nerr != nil {
					return fmt.Errorf("amqp nack: %w", nerr)
				}
				continue
			}
			if err := d.Ack(false); err != nil {
				return fmt.Errorf("amqp ack: %w", err)
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.conn.Close()
}
