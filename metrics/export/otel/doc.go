// Package otel binds console metrics to OpenTelemetry observable
// instruments.
//
// [New] registers one callback on the caller's Meter. Counters become
// Int64ObservableCounter instruments; every histogram bucket, the audit
// queue depth and the session flag become Int64ObservableGauge instruments.
// [Exporter.Close] unregisters the callback. The MeterProvider stays with
// the caller.
package otel
