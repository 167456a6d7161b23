// Package queue wraps RabbitMQ for report-generation jobs. Queues are
// durable, messages persistent JSON; a queue prefix separates environments
// sharing one broker.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// ErrBadMessage marks a message that can never be processed (malformed
// payload). The consumer rejects it without requeueing.
var ErrBadMessage = errors.New("malformed message")

const reconnectDelay = 5 * time.Second

// Client is a thin RabbitMQ helper. Safe for concurrent publishers; Consume
// is expected to run on its own goroutine.
type Client struct {
	url    string
	prefix string
	logger zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func New(url, prefix string, logger zerolog.Logger) *Client {
	return &Client{url: url, prefix: prefix, logger: logger}
}

// Prefixed returns the queue name with the environment prefix applied.
func (c *Client) Prefixed(queue string) string {
	if c.prefix == "" {
		return queue
	}
	return c.prefix + "_" + queue
}

func (c *Client) channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() && c.ch != nil && !c.ch.IsClosed() {
		return c.ch, nil
	}

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	c.conn = conn
	c.ch = ch
	c.logger.Info().Msg("connected to rabbitmq")
	return ch, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn.Close()
	}
	return nil
}

// Publish declares the durable queue and publishes msg as persistent JSON.
func (c *Client) Publish(ctx context.Context, queue string, msg interface{}) error {
	ch, err := c.channel()
	if err != nil {
		return err
	}

	name := c.Prefixed(queue)
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", name, err)
	}
	c.logger.Debug().Str("queue", name).Msg("message published")
	return nil
}

// Stats returns the ready message count and consumer count for a queue via a
// passive declare. A missing queue reports zero for both.
func (c *Client) Stats(queue string) (messages, consumers int, err error) {
	ch, err := c.channel()
	if err != nil {
		return 0, 0, err
	}
	q, err := ch.QueueDeclarePassive(c.Prefixed(queue), true, false, false, false, nil)
	if err != nil {
		// Passive declare on a missing queue closes the channel.
		c.mu.Lock()
		c.ch = nil
		c.mu.Unlock()
		return 0, 0, nil
	}
	return q.Messages, q.Consumers, nil
}

// Handler processes one message body. Returning ErrBadMessage drops the
// message; any other error requeues it once (not after redelivery).
type Handler func(ctx context.Context, body []byte) error

// Consume processes messages from the queue until ctx is cancelled,
// reconnecting with a delay after broker failures.
func (c *Client) Consume(ctx context.Context, queue string, handler Handler) error {
	name := c.Prefixed(queue)
	for {
		if err := c.consumeOnce(ctx, name, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error().Err(err).Str("queue", name).Msg("consumer error, reconnecting")
			select {
			case <-time.After(reconnectDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, name string, handler Handler) error {
	ch, err := c.channel()
	if err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}

	deliveries, err := ch.Consume(name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", name, err)
	}
	c.logger.Info().Str("queue", name).Msg("consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed for %s", name)
			}
			c.dispatch(ctx, d, handler)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, d amqp.Delivery, handler Handler) {
	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Error().Err(ackErr).Msg("failed to ack message")
		}
	case errors.Is(err, ErrBadMessage):
		c.logger.Error().Err(err).Msg("dropping malformed message")
		_ = d.Reject(false)
	default:
		// Requeue only on first failure; a redelivered message goes
		// to the broker's dead-letter policy.
		c.logger.Error().Err(err).Bool("redelivered", d.Redelivered).Msg("message processing failed")
		_ = d.Reject(!d.Redelivered)
	}
}
