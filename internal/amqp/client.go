// Package amqp broadcasts table-change events between ledger processes over
// RabbitMQ. The broker is optional: without it each process still serves
// correct data, just with up to one cache TTL of staleness after writes made
// elsewhere.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Client owns one connection and channel to the broker. Every process binds
// its own exclusive queue to a shared fanout exchange, so each broadcast
// reaches every peer.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	origin       string
}

// NewClient dials the broker and declares the fanout exchange plus this
// process's exclusive queue. origin tags outgoing messages so the publisher
// can ignore its own echoes.
func NewClient(url, exchangeName, origin string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		origin:       origin,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"fanout",
		false, // durable: cache hints are worthless after a broker restart
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Server-named exclusive queue: it lives and dies with this connection.
	q, err := c.channel.QueueDeclare(
		"",
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	c.queueName = q.Name

	if err := c.channel.QueueBind(c.queueName, "", c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishTableChanged broadcasts that a table was mutated. Failures are the
// caller's to log and swallow; a lost hint only delays peers by one TTL.
func (c *Client) PublishTableChanged(ctx context.Context, table, op string) error {
	msg := NewTableChangedMessage(c.origin, table, op)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		"", // fanout ignores the routing key
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeTableChanged delivers peer table-change messages to handler until
// ctx is canceled. Messages originated by this process are acknowledged and
// dropped without calling the handler.
func (c *Client) ConsumeTableChanged(ctx context.Context, handler func(*TableChangedMessage)) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer
		true,  // auto-ack: losing a hint is harmless
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Consuming table-change events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := TableChangedMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal table-change message", "error", err)
				continue
			}
			if msg.Origin == c.origin {
				continue
			}
			handler(msg)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
