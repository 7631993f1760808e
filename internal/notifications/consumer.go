package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"inventory-manager/internal/products"
	"inventory-manager/internal/products/messaging"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	consumerTag = "inventory-notifications"
	prefetch    = 16
)

var errMalformed = errors.New("malformed inventory event")

// Consumer reads inventory events and writes one notification log line per event.
type Consumer struct {
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

func NewConsumer(conn *amqp.Connection, queue string, logger *slog.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := messaging.DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		return nil, err
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}

	return &Consumer{
		channel: ch,
		queue:   queue,
		logger:  logger,
	}, nil
}

func (c *Consumer) Listen(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		consumerTag,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume queue %q: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			if err := c.Handle(msg.Body); err != nil {
				c.logger.Error("handle message failed", "error", err)
				// a payload that cannot be decoded will never succeed
				_ = msg.Nack(false, !errors.Is(err, errMalformed))
				continue
			}

			_ = msg.Ack(false)
		}
	}
}

// Handle decodes one event body and logs it.
func (c *Consumer) Handle(body []byte) error {
	var event products.ProductEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	switch event.EventType {
	case products.EventCreated, products.EventUpdated, products.EventDeleted:
	default:
		return fmt.Errorf("%w: unknown event type %q", errMalformed, event.EventType)
	}

	c.logger.Info("inventory notification",
		"event_type", event.EventType,
		"product_id", event.ProductID,
		"nombre", event.Nombre,
		"timestamp", event.Timestamp,
	)

	return nil
}

func (c *Consumer) Close() error {
	return c.channel.Close()
}
