// Package otel publishes engine metrics through an OpenTelemetry Meter.
//
// Every counter becomes an Int64ObservableCounter and every histogram bucket
// an Int64ObservableGauge. One callback snapshots the engine per collection.
// Callers own the MeterProvider.
package otel
