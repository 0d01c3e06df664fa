package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// All movement events share one topic; the partition key is the order id so
// events for a single order keep their order.
const TopicStockMovements = "stock.movements"

const (
	EventOrderShipped       = "CustomerOrderShipped"
	EventShipmentCancelled  = "CustomerOrderShipmentCancelled"
	EventOrderReceived      = "SupplierOrderReceived"
	EventReceptionCancelled = "SupplierOrderReceptionCancelled"
)

// Envelope is the versioned wrapper around every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// LineQty is one line of a movement payload.
type LineQty struct {
	ProductID int    `json:"product_id"`
	Code      string `json:"product_code"`
	Qty       int64  `json:"qty"`
}

// MovementPayload describes the stock deltas one committed transition applied.
type MovementPayload struct {
	OrderID int       `json:"order_id"`
	Lines   []LineQty `json:"lines"`
}

// NewEnvelope builds a v1 envelope around the given payload.
func NewEnvelope(producer, eventType string, orderID int, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode payload: %w", err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: strconv.Itoa(orderID),
		Payload:       raw,
	}, nil
}

// PartitionKey keys messages by order id to preserve per-order ordering.
func PartitionKey(orderID int) []byte { return []byte(strconv.Itoa(orderID)) }
