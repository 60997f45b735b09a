package otel

import (
	"context"
	"errors"
	"fmt"

	authcore "github.com/commercekit/authcore"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no Meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() authcore.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         authcore.MetricID
	instrument metric.Int64ObservableCounter
}

// OTelExporter bridges engine counters into an OpenTelemetry Meter.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers observable counters for every engine metric on
// meter, reading engine on each collection cycle.
func NewOTelExporter(meter metric.Meter, engine *authcore.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource is [NewOTelExporter] for any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	ids := authcore.MetricIDs()
	exporter := &OTelExporter{
		source:   source,
		counters: make([]observedCounter, 0, len(ids)),
	}

	observables := make([]metric.Observable, 0, len(ids)+1)
	for _, id := range ids {
		name := "authcore_" + id.Name() + "_total"
		ins, err := meter.Int64ObservableCounter(name, metric.WithDescription("authcore engine counter."))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: id, instrument: ins})
		observables = append(observables, ins)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		"authcore_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		observer.ObserveInt64(exporter.auditDropped, int64(exporter.source.AuditDropped()))
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
