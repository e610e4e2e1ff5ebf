package tiers

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/tierforge/tierforge-backend/pkg/enums"
	"github.com/tierforge/tierforge-backend/pkg/logger"
	"github.com/tierforge/tierforge-backend/pkg/outbox"
	"github.com/tierforge/tierforge-backend/pkg/outbox/idempotency"
)

const tierEventsConsumer = "tier-events-worker"

type hierarchyInvalidator interface {
	Invalidate(ctx context.Context, manufacturerID uuid.UUID)
}

// Consumer watches tier audit events and drops the cached hierarchy of
// the affected manufacturer so every replica rebuilds it on next read.
type Consumer struct {
	cache        hierarchyInvalidator
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a cache invalidation consumer.
func NewConsumer(cache hierarchyInvalidator, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if cache == nil {
		return nil, fmt.Errorf("hierarchy cache required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("tier subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		cache:        cache,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if !isTierEvent(eventType) {
		c.logg.Info(logCtx, "skipping non-tier event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, tierEventsConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	// Every tier payload carries the owning manufacturer; that is the
	// only field invalidation needs.
	var payload struct {
		ManufacturerID uuid.UUID `json:"manufacturerId"`
	}
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, tierEventsConsumer, eventID)
		return processResult{nack: true}
	}
	if payload.ManufacturerID == uuid.Nil {
		c.logg.Error(logCtx, "payload missing manufacturer id", fmt.Errorf("manufacturerId is nil"))
		return processResult{ack: true}
	}

	logCtx = c.logg.WithField(logCtx, "manufacturer_id", payload.ManufacturerID.String())
	c.cache.Invalidate(ctx, payload.ManufacturerID)
	c.logg.Info(logCtx, "hierarchy cache invalidated")
	return processResult{ack: true}
}

func isTierEvent(eventType string) bool {
	switch enums.OutboxEventType(eventType) {
	case enums.EventTierNodeCreated, enums.EventTierNodeUpdated, enums.EventTierNodeDeleted, enums.EventTierUsersBound:
		return true
	default:
		return false
	}
}
