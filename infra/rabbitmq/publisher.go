package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inventory/pkg/events"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	dialAttempts   = 5
	confirmTimeout = 5 * time.Second
	confirmBuffer  = 16
)

// Publisher implements events.Publisher on a topic exchange with publisher confirms.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	confirms chan amqp.Confirmation
	exchange string
	service  string
	mu       sync.Mutex
}

// NewPublisher dials url, declares exchange and puts the channel in confirm mode.
func NewPublisher(url, exchange, service string) (*Publisher, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < dialAttempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		zap.L().Warn("Failed to connect to RabbitMQ, retrying...",
			zap.Int("attempt", i+1),
			zap.Error(err))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ after retries: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	if err := channel.Confirm(false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	zap.L().Info("RabbitMQ publisher connected", zap.String("exchange", exchange))

	return &Publisher{
		conn:     conn,
		channel:  channel,
		confirms: channel.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer)),
		exchange: exchange,
		service:  service,
	}, nil
}

// Publish sends event and waits for the broker to confirm it.
func (p *Publisher) Publish(ctx context.Context, event *events.Event) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Timestamp,
		Headers: amqp.Table{
			"x-trace-id":       event.TraceID,
			"x-correlation-id": event.CorrelationID,
			"x-service":        p.service,
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	// One publish at a time; late confirms of timed-out publishes are skipped by tag.
	p.mu.Lock()
	defer p.mu.Unlock()

	tag := p.channel.GetNextPublishSeqNo()
	if err := p.channel.PublishWithContext(publishCtx, p.exchange, event.RoutingKey(), false, false, msg); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	if err := awaitConfirm(publishCtx, p.confirms, tag); err != nil {
		return err
	}

	zap.L().Debug("Event published",
		zap.String("exchange", p.exchange),
		zap.String("routingKey", event.RoutingKey()),
		zap.String("traceId", event.TraceID),
	)
	return nil
}

// Ping fails once the connection or channel has been closed by either side.
func (p *Publisher) Ping(context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection closed")
	}
	if p.channel == nil || p.channel.IsClosed() {
		return fmt.Errorf("rabbitmq channel closed")
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			zap.L().Error("Failed to close channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			zap.L().Error("Failed to close connection", zap.Error(err))
			return err
		}
	}
	zap.L().Info("RabbitMQ publisher closed")
	return nil
}

// awaitConfirm waits for the confirmation of delivery tag. Confirmations for
// earlier tags belong to publishes that already timed out and are skipped.
func awaitConfirm(ctx context.Context, confirms <-chan amqp.Confirmation, tag uint64) error {
	for {
		select {
		case confirm, ok := <-confirms:
			if !ok {
				return fmt.Errorf("channel closed before confirmation")
			}
			if confirm.DeliveryTag < tag {
				continue
			}
			if !confirm.Ack {
				return fmt.Errorf("message %d was not acknowledged by broker", tag)
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("publish confirmation timeout: %w", ctx.Err())
		}
	}
}
