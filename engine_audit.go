package authcore

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventCodeRequest     = "code_request"
	auditEventCodeVerify      = "code_verify"
	auditEventSessionResolve  = "session_resolve"
	auditEventWebhook         = "webhook"
	auditEventStoreFallback   = "store_fallback"
	auditEventLimiterFallback = "limiter_fallback"
)

// AuditErrorCode is the stable error label attached to audit events in place
// of raw error text.
type AuditErrorCode string

const (
	auditErrRateLimited      AuditErrorCode = "rate_limited"
	auditErrInvalidOrExpired AuditErrorCode = "invalid_or_expired"
	auditErrUnauthenticated  AuditErrorCode = "unauthenticated"
	auditErrForbidden        AuditErrorCode = "forbidden"
	auditErrUntrusted        AuditErrorCode = "untrusted"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrMailer           AuditErrorCode = "mailer_unavailable"
	auditErrInvalidIdentity  AuditErrorCode = "invalid_identity"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identity string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Identity:  identity,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrInvalidOrExpired):
		return auditErrInvalidOrExpired
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrUntrustedWebhook):
		return auditErrUntrusted
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrMailerUnavailable):
		return auditErrMailer
	case errors.Is(err, ErrInvalidIdentity):
		return auditErrInvalidIdentity
	default:
		return auditErrInternal
	}
}
