package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeName        = "openslot.notifications"
	routingKeyConfirmed = "booking.confirmed"
	routingKeyCancelled = "booking.cancelled"
)

// AMQPNotifier publishes booking notifications to a topic exchange consumed
// by the mail worker.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPNotifier{conn: conn, channel: channel}, nil
}

func (n *AMQPNotifier) publish(ctx context.Context, routingKey string, msg BookingMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return n.channel.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (n *AMQPNotifier) BookingConfirmed(ctx context.Context, msg BookingMessage) error {
	return n.publish(ctx, routingKeyConfirmed, msg)
}

func (n *AMQPNotifier) BookingCancelled(ctx context.Context, msg BookingMessage) error {
	return n.publish(ctx, routingKeyCancelled, msg)
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() error {
	if err := n.channel.Close(); err != nil {
		n.conn.Close()
		return err
	}
	return n.conn.Close()
}
