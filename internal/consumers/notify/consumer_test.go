package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	"github.com/freshkart-labs/freshkart-backend/pkg/logger"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox/payloads"
)

func TestNotifyConsumerProcessesOrderCreated(t *testing.T) {
	repo := &fakeCreator{}
	consumer := mustConsumer(t, repo, passthroughIdempotency())

	userID := uuid.New()
	orderID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), payloads.OrderCreatedEvent{
		OrderID:       orderID,
		UserID:        userID,
		TotalAmount:   decimal.RequireFromString("16.97"),
		ItemCount:     2,
		PaymentMethod: enums.PaymentMethodCOD,
	})

	if err := consumer.Process(context.Background(), enums.EventOrderCreated, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if len(repo.rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.rows))
	}
	row := repo.rows[0]
	if row.UserID != userID || row.Type != enums.NotificationTypeOrderUpdate {
		t.Fatalf("unexpected notification %+v", row)
	}
	if row.OrderID == nil || *row.OrderID != orderID {
		t.Fatalf("expected order reference, got %+v", row.OrderID)
	}
	if row.Title != "Order placed" {
		t.Fatalf("unexpected title %q", row.Title)
	}
}

func TestNotifyConsumerStatusAndCancellationMessages(t *testing.T) {
	repo := &fakeCreator{}
	consumer := mustConsumer(t, repo, passthroughIdempotency())
	userID := uuid.New()

	statusEnvelope := buildEnvelope(t, uuid.New(), payloads.OrderStatusChangedEvent{
		OrderID:   uuid.New(),
		UserID:    userID,
		From:      enums.OrderStatusProcessing,
		To:        enums.OrderStatusShipped,
		ChangedAt: time.Now(),
	})
	if err := consumer.Process(context.Background(), enums.EventOrderStatusChanged, statusEnvelope); err != nil {
		t.Fatalf("Process() status error: %v", err)
	}

	cancelEnvelope := buildEnvelope(t, uuid.New(), payloads.OrderCancelledEvent{
		OrderID:     uuid.New(),
		UserID:      userID,
		CancelledAt: time.Now(),
		Reason:      "out for too long",
	})
	if err := consumer.Process(context.Background(), enums.EventOrderCancelled, cancelEnvelope); err != nil {
		t.Fatalf("Process() cancel error: %v", err)
	}

	if len(repo.rows) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(repo.rows))
	}
	if repo.rows[0].Message != "Your order is now shipped." {
		t.Fatalf("unexpected status message %q", repo.rows[0].Message)
	}
	if repo.rows[1].Message != "Your order has been cancelled: out for too long" {
		t.Fatalf("unexpected cancel message %q", repo.rows[1].Message)
	}
}

func TestNotifyConsumerPassesThroughRequestedNotification(t *testing.T) {
	repo := &fakeCreator{}
	consumer := mustConsumer(t, repo, passthroughIdempotency())
	userID := uuid.New()

	envelope := buildEnvelope(t, uuid.New(), payloads.NotificationRequestedEvent{
		UserID:  userID,
		Type:    enums.NotificationTypePromotion,
		Title:   "Weekend sale",
		Message: "Fresh produce at 20% off.",
	})
	if err := consumer.Process(context.Background(), enums.EventNotificationRequested, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(repo.rows) != 1 || repo.rows[0].Type != enums.NotificationTypePromotion {
		t.Fatalf("unexpected rows %+v", repo.rows)
	}
}

func TestNotifyConsumerIsIdempotent(t *testing.T) {
	repo := &fakeCreator{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return true, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
	consumer := mustConsumer(t, repo, manager)

	envelope := buildEnvelope(t, uuid.New(), payloads.OrderCreatedEvent{OrderID: uuid.New(), UserID: uuid.New()})
	if err := consumer.Process(context.Background(), enums.EventOrderCreated, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("expected no notifications when already processed")
	}
}

func TestNotifyConsumerDeletesKeyOnPersistFailure(t *testing.T) {
	repo := &fakeCreator{err: errors.New("db down")}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, repo, manager)

	envelope := buildEnvelope(t, uuid.New(), payloads.OrderCreatedEvent{OrderID: uuid.New(), UserID: uuid.New()})
	if err := consumer.Process(context.Background(), enums.EventOrderCreated, envelope); err == nil {
		t.Fatalf("expected error when persist fails")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on failure")
	}
}

func TestNotifyConsumerDeletesKeyOnDecodeFailure(t *testing.T) {
	repo := &fakeCreator{}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, repo, manager)

	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       []byte("{invalid json"),
	}
	if err := consumer.Process(context.Background(), enums.EventOrderCreated, envelope); err == nil {
		t.Fatalf("expected error for bad payload")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on decode error")
	}
	if len(repo.rows) != 0 {
		t.Fatalf("expected no notifications on decode failure")
	}
}

func TestNotifyConsumerIgnoresUnrelatedEvents(t *testing.T) {
	repo := &fakeCreator{}
	consumer := mustConsumer(t, repo, passthroughIdempotency())

	envelope := buildEnvelope(t, uuid.New(), map[string]any{})
	if err := consumer.Process(context.Background(), enums.OutboxEventType("inventory_adjusted"), envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("expected unrelated event to be skipped")
	}
}

type fakeCreator struct {
	rows []*models.Notification
	err  error
}

func (f *fakeCreator) Create(_ context.Context, notification *models.Notification) (*models.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.rows = append(f.rows, notification)
	return notification, nil
}

type fakeIdempotency struct {
	check    func(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	deleteFn func(ctx context.Context, consumer string, eventID uuid.UUID) error
}

func (f fakeIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	return f.check(ctx, consumer, eventID)
}

func (f fakeIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	return f.deleteFn(ctx, consumer, eventID)
}

func passthroughIdempotency() fakeIdempotency {
	return fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
}

func mustConsumer(t *testing.T, repo *fakeCreator, manager fakeIdempotency) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(repo, manager, logger.New(logger.Options{
		ServiceName: "notify-test",
		Level:       logger.ParseLevel("debug"),
		Output:      io.Discard,
	}))
	if err != nil {
		t.Fatalf("failed to build consumer: %v", err)
	}
	return consumer
}

func buildEnvelope(t *testing.T, eventID uuid.UUID, payload any) outbox.PayloadEnvelope {
	t.Helper()
	bytes, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now(),
		Data:       bytes,
	}
}
