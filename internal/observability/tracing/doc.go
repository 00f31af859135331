// Package tracing wires OpenTelemetry spans through the request path.
//
// The HTTP middleware opens a server span per request and propagates W3C
// trace context; the collector opens one child span per upstream source so a
// slow or failing source is visible in the trace of the feed request that
// triggered it.
//
// With the default global provider spans are no-ops. InitProvider installs
// an SDK provider exporting over OTLP/HTTP when OTEL_TRACES_ENABLED is set.
package tracing
