package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// dialer opens a broker connection.  Tests replace it.
type dialer func(url string) (channel, func() error, error)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends VerificationRequested events to a durable queue.  Each
// publish dials its own connection, which keeps the publisher free of
// reconnect state at the cost of one handshake per registration.
type Publisher struct {
	url   string
	queue string
	dial  dialer
	now   func() time.Time
}

// NewPublisher returns a publisher for queue on the broker at url.
func NewPublisher(url, queue string) *Publisher {
	return &Publisher{url: url, queue: queue, dial: dialAMQP, now: time.Now}
}

func dialAMQP(url string) (channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel open: %w", err)
	}
	closeAll := func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return ch, closeAll, nil
}

// SendVerification publishes ev as a persistent JSON message.  Empty ID and
// RequestedAt are filled in.
func (p *Publisher) SendVerification(ctx context.Context, ev VerificationRequested) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.RequestedAt.IsZero() {
		ev.RequestedAt = p.now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, closeFn, err := p.dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.RequestedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
