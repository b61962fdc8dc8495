package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/holiday-rush/internal/orders"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName        = "order.events"
	RoutingKeyPlaced    = "order.placed"
	orderPlacedQueue    = "order.placed.q"
	contentTypeJSON     = "application/json"
	rabbitPublisherName = "holiday-rush"
)

var ErrNotConfirmed = errors.New("broker did not confirm publish")

type confirmChannel interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

type RabbitPublisher struct {
	conn *amqp.Connection
	ch   confirmChannel
}

// DialRabbit connects and declares the topic exchange, a durable queue bound
// to order.placed, and publisher confirms.
func DialRabbit(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := setupTopology(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &RabbitPublisher{conn: conn, ch: ch}, nil
}

func setupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(orderPlacedQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, RoutingKeyPlaced, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enable confirm mode: %w", err)
	}
	return nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, ev *orders.OutboxEvent) error {
	pub := amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.EventType,
		AppId:        rabbitPublisherName,
		Timestamp:    ev.CreatedAt,
		Headers:      amqp.Table{"event_type": ev.EventType, "order_id": ev.AggregateID},
		Body:         ev.Payload,
	}

	dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, ExchangeName, RoutingKeyPlaced, false, false, pub)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	// nil when the channel is not in confirm mode
	if dc == nil {
		return nil
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
