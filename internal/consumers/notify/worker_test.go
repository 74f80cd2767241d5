package notify

import (
	"encoding/json"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox"
)

func TestDecodeMessageReadsEnvelopeAndType(t *testing.T) {
	eventID := uuid.NewString()
	data, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	msg := &gcppubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event_type": string(enums.EventOrderCreated)},
	}

	eventType, envelope, err := decodeMessage(msg)
	if err != nil {
		t.Fatalf("decodeMessage: %v", err)
	}
	if eventType != enums.EventOrderCreated {
		t.Fatalf("unexpected event type %s", eventType)
	}
	if envelope.EventID != eventID {
		t.Fatalf("unexpected event id %s", envelope.EventID)
	}
}

func TestDecodeMessageFallsBackToAttributeEventID(t *testing.T) {
	eventID := uuid.NewString()
	msg := &gcppubsub.Message{
		Data: []byte(`{"version":1,"data":{}}`),
		Attributes: map[string]string{
			"event_type": string(enums.EventOrderCancelled),
			"event_id":   eventID,
		},
	}

	_, envelope, err := decodeMessage(msg)
	if err != nil {
		t.Fatalf("decodeMessage: %v", err)
	}
	if envelope.EventID != eventID {
		t.Fatalf("expected attribute event id, got %s", envelope.EventID)
	}
}

func TestDecodeMessageRejectsUnknownType(t *testing.T) {
	msg := &gcppubsub.Message{
		Data:       []byte(`{"version":1,"event_id":"abc","data":{}}`),
		Attributes: map[string]string{"event_type": "order_archived"},
	}

	if _, _, err := decodeMessage(msg); err == nil {
		t.Fatal("expected unknown event type error")
	}
}

func TestDecodeMessageRejectsMalformedPayload(t *testing.T) {
	msg := &gcppubsub.Message{
		Data:       []byte(`not-json`),
		Attributes: map[string]string{"event_type": string(enums.EventOrderCreated)},
	}

	if _, _, err := decodeMessage(msg); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDecodeMessageRequiresEventID(t *testing.T) {
	msg := &gcppubsub.Message{
		Data:       []byte(`{"version":1,"data":{}}`),
		Attributes: map[string]string{"event_type": string(enums.EventOrderCreated)},
	}

	if _, _, err := decodeMessage(msg); err == nil {
		t.Fatal("expected missing event id error")
	}
}
