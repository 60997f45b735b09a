package webhook

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a normalized payment event.
type Kind uint8

const (
	// KindIgnored marks event types this core does not act on. The delivery
	// is still acknowledged so the processor stops retrying it.
	KindIgnored Kind = iota
	// KindCaptured marks a successfully captured payment.
	KindCaptured
	// KindFailed marks a failed payment.
	KindFailed
)

// String returns the event kind name.
func (k Kind) String() string {
	switch k {
	case KindCaptured:
		return "captured"
	case KindFailed:
		return "failed"
	default:
		return "ignored"
	}
}

// Event is the normalized form of a trusted payment notification: what
// happened and the processor's identifiers for the order and payment.
type Event struct {
	Kind      Kind
	OrderID   string
	PaymentID string
}

// processor payload shape: {"event": "payment.captured",
// "payload": {"payment": {"entity": {"id": ..., "order_id": ...}}}}
type payload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseEvent decodes a payment-processor payload into an [Event]. Callers
// must have verified rawBody first. Event types other than capture and
// failure decode to [KindIgnored].
func ParseEvent(rawBody []byte) (Event, error) {
	var p payload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return Event{}, fmt.Errorf("malformed webhook payload: %w", err)
	}

	event := Event{
		OrderID:   p.Payload.Payment.Entity.OrderID,
		PaymentID: p.Payload.Payment.Entity.ID,
	}

	switch p.Event {
	case "payment.captured":
		event.Kind = KindCaptured
	case "payment.failed":
		event.Kind = KindFailed
	default:
		event.Kind = KindIgnored
	}
	return event, nil
}
