package authcore

import (
	"github.com/commercekit/authcore/credstore"
	"github.com/commercekit/authcore/internal/rate"
	"github.com/commercekit/authcore/token"
	"github.com/commercekit/authcore/webhook"
)

// Engine is the coordination point for the passwordless authentication and
// payment-trust core. Construct one through [Builder.Build]; after that all
// methods are safe for concurrent use.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	store        credstore.Store
	limiter      rate.Limiter
	localLimiter *rate.Memory
	tokens       *token.Manager
	webhooks     *webhook.Verifier
	resolvers    ResolverChain
	mailer       Mailer
	users        UserProvider
	orders       OrderUpdater
	audit        *auditDispatcher
	metrics      *Metrics
}

// Close drains and stops the audit dispatcher. Safe to call on a nil engine
// and more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatch queue was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine's counters. Returns an empty snapshot
// when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
