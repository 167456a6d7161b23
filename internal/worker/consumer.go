package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcu/report/internal/domain/report"
	"github.com/mcu/report/internal/platform/queue"
)

const (
	maxAttempts = 3
	retryDelay  = 5 * time.Second
)

// Consumer drains the report-generation queue, running one pipeline per
// message. A failing job is retried in-process before the delivery is handed
// back to the broker's redelivery policy.
type Consumer struct {
	client    *queue.Client
	svc       *report.Service
	queueName string
	logger    zerolog.Logger
}

func New(client *queue.Client, svc *report.Service, queueName string, logger zerolog.Logger) *Consumer {
	return &Consumer{
		client:    client,
		svc:       svc,
		queueName: queueName,
		logger:    logger.With().Str("component", "consumer").Logger(),
	}
}

// Run blocks consuming jobs until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info().Str("queue", c.queueName).Msg("consumer starting")
	return c.client.Consume(ctx, c.queueName, c.handle)
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := c.svc.Process(ctx, body)
		if err == nil {
			return nil
		}
		if report.IsBadJob(err) {
			c.logger.Error().Err(err).Msg("dropping unprocessable job")
			return fmt.Errorf("%w: %v", queue.ErrBadMessage, err)
		}

		lastErr = err
		c.logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("report job failed")

		if attempt < maxAttempts {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
