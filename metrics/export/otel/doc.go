// Package otel publishes chatauth metrics as OpenTelemetry instruments.
//
// [NewExporter] registers an Int64ObservableCounter per chatauth counter and
// an Int64ObservableGauge per latency bucket. A single callback reads
// chatauth.Engine.MetricsSnapshot on each collection cycle. Callers own the
// MeterProvider.
package otel
