// Package otel provides OpenTelemetry metric exporter bindings for authcore
// counters.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine metric
// plus the audit-drop counter. A single callback reads
// [authcore.Engine.MetricsSnapshot] on each collection cycle, so exporting
// adds no work to request paths.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
