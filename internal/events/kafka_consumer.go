package events

import (
	"context"

	"github.com/platterhub/service-booking/internal/domain/identity"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// AvailabilityConsumer listens to identity worker events and keeps the
// availability read-model current.
type AvailabilityConsumer struct {
	consumer *Consumer
	store    identity.AvailabilityWriter
	logger   *zap.Logger
}

// NewAvailabilityConsumer creates a new AvailabilityConsumer.
func NewAvailabilityConsumer(
	brokers []string,
	groupID string,
	store identity.AvailabilityWriter,
	logger *zap.Logger,
) *AvailabilityConsumer {
	consumer := NewConsumer(brokers, groupID, TopicWorkerEvents, logger)
	return &AvailabilityConsumer{
		consumer: consumer,
		store:    store,
		logger:   logger,
	}
}

// Start begins consuming worker events. This blocks until the context is cancelled.
func (c *AvailabilityConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *AvailabilityConsumer) Close() error {
	return c.consumer.Close()
}

func (c *AvailabilityConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from worker topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}
	return c.HandleEvent(ctx, cloudEvent)
}

// HandleEvent applies a single worker event.
func (c *AvailabilityConsumer) HandleEvent(ctx context.Context, cloudEvent CloudEvent) error {
	switch cloudEvent.Type {
	case WorkerAvailabilityChanged:
		return c.handleAvailabilityChanged(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled worker event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *AvailabilityConsumer) handleAvailabilityChanged(ctx context.Context, cloudEvent CloudEvent) error {
	var evt WorkerAvailabilityChangedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse WorkerAvailabilityChangedEvent data",
			zap.Error(err),
		)
		return nil
	}

	status, err := identity.ParseAvailability(evt.Status)
	if err != nil {
		c.logger.Warn("ignoring availability event with unknown status",
			zap.String("worker_id", evt.WorkerID.String()),
			zap.String("status", evt.Status),
		)
		return nil
	}

	if err := c.store.SetAvailability(ctx, evt.WorkerID, status); err != nil {
		c.logger.Error("failed to store worker availability",
			zap.String("worker_id", evt.WorkerID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("worker availability updated",
		zap.String("worker_id", evt.WorkerID.String()),
		zap.String("status", string(status)),
	)
	return nil
}
