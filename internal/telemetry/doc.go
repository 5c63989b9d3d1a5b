// Package telemetry wires OpenTelemetry into lantern: counters and a
// duration histogram for invocations, a connect counter, and optional
// OTLP/HTTP trace export.
package telemetry
