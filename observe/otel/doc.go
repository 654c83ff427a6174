// Package otel reserves the observer surface for an OpenTelemetry
// exporter. Only the no-op implementation ships today so callers can
// wire the plugin point without pulling in the OTel SDK.
package otel
