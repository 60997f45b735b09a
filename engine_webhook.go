package authcore

import (
	"context"
	"fmt"

	"github.com/commercekit/authcore/webhook"
)

// WebhookResult reports what HandleWebhook did with a delivery.
type WebhookResult struct {
	// Trusted is the signature verdict over the raw body.
	Trusted bool
	// Event is the normalized payment event, set only when Trusted.
	Event webhook.Event
	// Applied is true when the event reached the order collaborator.
	Applied bool
}

// HandleWebhook verifies a payment-processor delivery and, on trust, parses
// the raw body and forwards capture/failure events to the order collaborator.
//
// The signature is checked over the exact bytes received, before any
// parsing. An untrusted delivery, and deliberately also a trusted delivery
// whose payload will not decode, fails with [ErrUntrustedWebhook]; the
// caller learns nothing about which check failed. Deliveries for event types
// this core does not act on verify, parse, and are then acknowledged without
// touching order state.
func (e *Engine) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (WebhookResult, error) {
	if e == nil || e.webhooks == nil {
		return WebhookResult{}, ErrEngineNotReady
	}

	if !e.webhooks.Verify(rawBody, signature) {
		e.metricInc(MetricWebhookRejected)
		e.emitAudit(ctx, auditEventWebhook, false, "", ErrUntrustedWebhook, nil)
		return WebhookResult{}, ErrUntrustedWebhook
	}
	e.metricInc(MetricWebhookTrusted)

	event, err := webhook.ParseEvent(rawBody)
	if err != nil {
		// Same outward failure as a bad signature; the audit trail keeps
		// the real reason.
		e.emitAudit(ctx, auditEventWebhook, false, "", ErrUntrustedWebhook, func() map[string]string {
			return map[string]string{"stage": "parse"}
		})
		return WebhookResult{Trusted: true}, ErrUntrustedWebhook
	}

	result := WebhookResult{Trusted: true, Event: event}
	if event.Kind == webhook.KindIgnored || e.orders == nil {
		e.emitAudit(ctx, auditEventWebhook, true, "", nil, func() map[string]string {
			return map[string]string{"kind": event.Kind.String(), "applied": "false"}
		})
		return result, nil
	}

	if err := e.orders.ApplyPaymentEvent(ctx, event); err != nil {
		e.emitAudit(ctx, auditEventWebhook, false, "", err, func() map[string]string {
			return map[string]string{"kind": event.Kind.String(), "stage": "order_update"}
		})
		return result, fmt.Errorf("order update: %w", err)
	}

	result.Applied = true
	e.emitAudit(ctx, auditEventWebhook, true, "", nil, func() map[string]string {
		return map[string]string{"kind": event.Kind.String(), "order_id": event.OrderID}
	})
	return result, nil
}
