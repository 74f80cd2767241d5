package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	"github.com/freshkart-labs/freshkart-backend/pkg/logger"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox/payloads"
)

const notifyConsumerName = "notify-worker"

type notificationCreator interface {
	Create(ctx context.Context, notification *models.Notification) (*models.Notification, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer turns order lifecycle events into in-app notification rows while
// honoring Redis idempotency.
type Consumer struct {
	repo        notificationCreator
	manager     idempotencyChecker
	logg        *logger.Logger
	eventFilter map[enums.OutboxEventType]struct{}
}

// NewConsumer builds a new notification consumer.
func NewConsumer(repo notificationCreator, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:    repo,
		manager: manager,
		logg:    logg,
		eventFilter: map[enums.OutboxEventType]struct{}{
			enums.EventOrderCreated:          {},
			enums.EventOrderStatusChanged:    {},
			enums.EventOrderCancelled:        {},
			enums.EventNotificationRequested: {},
		},
	}, nil
}

// Process persists a notification for the event if it is supported.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if _, ok := c.eventFilter[eventType]; !ok {
		c.logg.Info(logCtx, "event not handled by notify consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, notifyConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	notification, err := buildNotification(eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to build notification", err)
		_ = c.manager.Delete(ctx, notifyConsumerName, eventID)
		return err
	}

	if _, err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to persist notification", err)
		_ = c.manager.Delete(ctx, notifyConsumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "notification persisted")
	return nil
}

func buildNotification(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (*models.Notification, error) {
	switch eventType {
	case enums.EventOrderCreated:
		var data payloads.OrderCreatedEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		orderID := data.OrderID
		return &models.Notification{
			UserID:  data.UserID,
			Type:    enums.NotificationTypeOrderUpdate,
			Title:   "Order placed",
			Message: fmt.Sprintf("Your order of %d item(s) totalling %s has been placed.", data.ItemCount, data.TotalAmount.StringFixed(2)),
			OrderID: &orderID,
		}, nil

	case enums.EventOrderStatusChanged:
		var data payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		orderID := data.OrderID
		return &models.Notification{
			UserID:  data.UserID,
			Type:    enums.NotificationTypeOrderUpdate,
			Title:   "Order update",
			Message: fmt.Sprintf("Your order is now %s.", data.To),
			OrderID: &orderID,
		}, nil

	case enums.EventOrderCancelled:
		var data payloads.OrderCancelledEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		orderID := data.OrderID
		message := "Your order has been cancelled."
		if data.Reason != "" {
			message = fmt.Sprintf("Your order has been cancelled: %s", data.Reason)
		}
		return &models.Notification{
			UserID:  data.UserID,
			Type:    enums.NotificationTypeOrderUpdate,
			Title:   "Order cancelled",
			Message: message,
			OrderID: &orderID,
		}, nil

	case enums.EventNotificationRequested:
		var data payloads.NotificationRequestedEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		if !data.Type.IsValid() {
			return nil, fmt.Errorf("invalid notification type %q", data.Type)
		}
		return &models.Notification{
			UserID:  data.UserID,
			Type:    data.Type,
			Title:   data.Title,
			Message: data.Message,
			OrderID: data.OrderID,
		}, nil
	}
	return nil, fmt.Errorf("unsupported event type %q", eventType)
}
