package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"scm-analytics/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	alerts      *Producer
	predictions *Producer
}

// NewEventPublisher creates a new event publisher. predictions may be nil for
// processes that never request forecasts.
func NewEventPublisher(alerts, predictions *Producer) *EventPublisher {
	return &EventPublisher{alerts: alerts, predictions: predictions}
}

func productKey(productID int64) string {
	return fmt.Sprintf("product-%d", productID)
}

// PublishAlertCreated publishes AlertCreated event
func (ep *EventPublisher) PublishAlertCreated(ctx context.Context, event *models.AlertCreatedEvent) error {
	return ep.alerts.PublishEvent(ctx, productKey(event.ProductID), event.EventType, event)
}

// PublishPredictionRequested publishes PredictionRequested event
func (ep *EventPublisher) PublishPredictionRequested(ctx context.Context, event *models.PredictionRequestedEvent) error {
	if ep.predictions == nil {
		return fmt.Errorf("prediction producer not configured")
	}
	return ep.predictions.PublishEvent(ctx, productKey(event.ProductID), event.EventType, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onPredictionRequested func(context.Context, *models.PredictionRequestedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPredictionRequested registers a handler for PredictionRequested events
func (eh *EventHandler) OnPredictionRequested(handler func(context.Context, *models.PredictionRequestedEvent) error) {
	eh.onPredictionRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypePredictionRequested:
		if eh.onPredictionRequested != nil {
			var event models.PredictionRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PredictionRequested event: %w", err)
			}
			if event.ProductID <= 0 {
				return fmt.Errorf("invalid product id %d in event %s", event.ProductID, event.EventID)
			}
			return eh.onPredictionRequested(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
