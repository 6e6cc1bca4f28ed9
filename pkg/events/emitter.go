// Package events handles event emission for ingestion runs
package events

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/zach-wendland/bna-rentals/pkg/kafka"
	"github.com/zach-wendland/bna-rentals/pkg/tracing"
)

// Emitter publishes ingestion lifecycle events. A nil producer makes
// every emit a no-op, which is the mode when Kafka is not configured.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitSynced emits a rentals.synced event after a successful run.
// Failures are logged but never fail the sync itself.
func (e *Emitter) EmitSynced(ctx context.Context, trigger string, collected, persisted int, ingestionDate string) {
	if e == nil || e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSynced")
	defer span.End()

	event := &kafka.SyncEvent{
		EventType:     "rentals.synced",
		Trigger:       trigger,
		Collected:     collected,
		Persisted:     persisted,
		IngestionDate: ingestionDate,
	}

	if err := e.producer.PublishSyncEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit rentals.synced event")
	}
}
