package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	"github.com/freshkart-labs/freshkart-backend/pkg/logger"
	"github.com/freshkart-labs/freshkart-backend/pkg/metrics"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox"
)

const workerName = "notify-worker"

// Worker pulls order lifecycle events off Pub/Sub and feeds the consumer.
type Worker struct {
	subscription *gcppubsub.Subscriber
	consumer     *Consumer
	logg         *logger.Logger
	metrics      *metrics.WorkerMetrics
}

// NewWorker builds a Pub/Sub worker around the notification consumer.
func NewWorker(subscription *gcppubsub.Subscriber, consumer *Consumer, logg *logger.Logger, m *metrics.WorkerMetrics) (*Worker, error) {
	if subscription == nil {
		return nil, errors.New("notification subscription is required")
	}
	if consumer == nil {
		return nil, errors.New("notification consumer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Worker{subscription: subscription, consumer: consumer, logg: logg, metrics: m}, nil
}

// Run consumes messages until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return w.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if w.process(innerCtx, msg) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process returns true when the message should be redelivered.
func (w *Worker) process(ctx context.Context, msg *gcppubsub.Message) bool {
	logCtx := w.logg.WithFields(ctx, map[string]any{"message_id": msg.ID})

	eventType, envelope, err := decodeMessage(msg)
	if err != nil {
		logCtx = w.logg.WithFields(logCtx, map[string]any{"error": err.Error()})
		w.logg.Warn(logCtx, "invalid notification message")
		return false
	}

	if err := w.consumer.Process(logCtx, eventType, *envelope); err != nil {
		w.logg.Error(logCtx, "notification consumer error", err)
		w.metrics.IncFailure(workerName)
		return true
	}
	w.metrics.IncSuccess(workerName)
	return false
}

func decodeMessage(msg *gcppubsub.Message) (enums.OutboxEventType, *outbox.PayloadEnvelope, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return "", nil, fmt.Errorf("decode payload envelope: %w", err)
	}

	rawType := strings.TrimSpace(msg.Attributes["event_type"])
	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		return "", nil, fmt.Errorf("event_type: %w", err)
	}

	if strings.TrimSpace(envelope.EventID) == "" {
		envelope.EventID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	if strings.TrimSpace(envelope.EventID) == "" {
		return "", nil, errors.New("event_id missing")
	}

	return eventType, &envelope, nil
}
