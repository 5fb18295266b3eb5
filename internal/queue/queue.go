package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/config"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/observability/metrics"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/observability/tracing"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/pkg"
)

// TransferEventHandler processes one settled transfer event. A non-nil
// error causes the message to be nacked and requeued.
type TransferEventHandler func(ctx context.Context, event *types.TransferEvent) error

type QueueManager struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	conn, err := amqp.Dial(cfg.Url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.Qos(cfg.PrefetchCount, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set channel prefetch: %w", err)
	}

	if _, err := channel.QueueDeclare(
		cfg.TransferQueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.TransferQueueName, err)
	}

	return &QueueManager{
		conn:      conn,
		channel:   channel,
		queueName: cfg.TransferQueueName,
	}, nil
}

// StartConsuming delivers transfer events to the handler until the context
// is cancelled or the channel closes.
func (qm *QueueManager) StartConsuming(ctx context.Context, handler TransferEventHandler) error {
	consumerTag := fmt.Sprintf("tcoin-accounting-%s", pkg.RandString(8))
	deliveries, err := qm.channel.Consume(
		qm.queueName,
		consumerTag,
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming from %s: %w", qm.queueName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					log.Warn().Msg("Delivery channel closed, stopping consumer")
					return
				}
				qm.handleDelivery(ctx, delivery, handler)
			}
		}
	}()

	return nil
}

func (qm *QueueManager) handleDelivery(
	ctx context.Context, delivery amqp.Delivery, handler TransferEventHandler,
) {
	ctx = tracing.InjectTraceID(ctx)

	var event types.TransferEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		metrics.RecordQueueConsumeError()
		log.Ctx(ctx).Error().Err(err).Msg("Failed to decode transfer event, dropping message")
		// malformed payloads are not retryable
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			log.Ctx(ctx).Error().Err(nackErr).Msg("Failed to nack malformed message")
		}
		return
	}

	if err := handler(ctx, &event); err != nil {
		metrics.RecordQueueConsumeError()
		log.Ctx(ctx).Error().Err(err).
			Str("eventId", event.EventID).
			Msg("Failed to process transfer event, requeueing")
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			log.Ctx(ctx).Error().Err(nackErr).Msg("Failed to nack message")
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to ack message")
	}
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")
	if err := qm.channel.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close channel")
	}
	if err := qm.conn.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close connection")
	}
}
