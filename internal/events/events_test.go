package events

import (
	"encoding/json"
	"testing"
)

func TestNewEnvelope(t *testing.T) {
	payload := MovementPayload{
		OrderID: 42,
		Lines:   []LineQty{{ProductID: 1, Code: "WIDGET", Qty: 3}},
	}

	env, err := NewEnvelope("stockmanager", EventOrderShipped, 42, payload)
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}

	if env.EventID == "" {
		t.Error("expected a generated event id")
	}
	if env.EventType != EventOrderShipped {
		t.Errorf("expected event type %s, got %s", EventOrderShipped, env.EventType)
	}
	if env.EventVersion != 1 {
		t.Errorf("expected version 1, got %d", env.EventVersion)
	}
	if env.CorrelationID != "42" {
		t.Errorf("expected correlation id 42, got %s", env.CorrelationID)
	}

	var decoded MovementPayload
	if err := json.Unmarshal(env.Payload, &decoded); err != nil {
		t.Fatalf("payload does not round-trip: %v", err)
	}
	if decoded.OrderID != 42 || len(decoded.Lines) != 1 || decoded.Lines[0].Qty != 3 {
		t.Errorf("unexpected payload: %+v", decoded)
	}
}

func TestPartitionKey(t *testing.T) {
	if got := string(PartitionKey(42)); got != "42" {
		t.Errorf("expected key 42, got %s", got)
	}
}
