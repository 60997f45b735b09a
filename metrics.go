package authcore

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricCodeIssued counts codes generated and stored.
	MetricCodeIssued MetricID = iota
	// MetricCodeRateLimited counts sends denied by the fixed window.
	MetricCodeRateLimited
	// MetricCodeDeliveryFailure counts mailer failures (issuance may still
	// have succeeded).
	MetricCodeDeliveryFailure
	// MetricCodeVerifySuccess counts codes consumed by a successful verify.
	MetricCodeVerifySuccess
	// MetricCodeVerifyFailure counts verify attempts rejected as invalid or
	// expired.
	MetricCodeVerifyFailure
	// MetricTokenIssued counts session tokens minted.
	MetricTokenIssued
	// MetricResolveExternal counts requests resolved by the external-session
	// mechanism.
	MetricResolveExternal
	// MetricResolveToken counts requests resolved by a bearer token.
	MetricResolveToken
	// MetricResolveUnauthenticated counts requests no resolver accepted.
	MetricResolveUnauthenticated
	// MetricResolveForbidden counts resolved requests lacking the required
	// role.
	MetricResolveForbidden
	// MetricWebhookTrusted counts webhook deliveries whose signature
	// verified.
	MetricWebhookTrusted
	// MetricWebhookRejected counts webhook deliveries rejected as untrusted.
	MetricWebhookRejected
	// MetricStoreFallback counts credential-store calls that fell through to
	// local memory.
	MetricStoreFallback
	// MetricLimiterFallback counts rate-limit checks that fell through to
	// the in-process limiter.
	MetricLimiterFallback

	metricCount
)

var metricNames = [metricCount]string{
	MetricCodeIssued:             "code_issued",
	MetricCodeRateLimited:        "code_rate_limited",
	MetricCodeDeliveryFailure:    "code_delivery_failure",
	MetricCodeVerifySuccess:      "code_verify_success",
	MetricCodeVerifyFailure:      "code_verify_failure",
	MetricTokenIssued:            "token_issued",
	MetricResolveExternal:        "resolve_external",
	MetricResolveToken:           "resolve_token",
	MetricResolveUnauthenticated: "resolve_unauthenticated",
	MetricResolveForbidden:       "resolve_forbidden",
	MetricWebhookTrusted:         "webhook_trusted",
	MetricWebhookRejected:        "webhook_rejected",
	MetricStoreFallback:          "store_fallback",
	MetricLimiterFallback:        "limiter_fallback",
}

// Name returns the stable exposition name for the metric, or "unknown" for
// an out-of-range ID.
func (id MetricID) Name() string {
	if id >= metricCount {
		return "unknown"
	}
	return metricNames[id]
}

// MetricIDs returns every defined metric ID in exposition order.
func MetricIDs() []MetricID {
	ids := make([]MetricID, metricCount)
	for i := range ids {
		ids[i] = MetricID(i)
	}
	return ids
}

// Metrics is a fixed-slot atomic counter registry. All methods are safe for
// concurrent use and allocation-free on the increment path.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// NewMetrics creates a zeroed registry.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for i := range m.counters {
		snap.Counters[MetricID(i)] = m.counters[i].Load()
	}
	return snap
}
