// Package telemetry records xform activity as Prometheus metrics and
// OpenTelemetry spans.
//
// Metrics are off until Prometheus is called; the Record functions are no-ops
// before that. Spans use the global OpenTelemetry tracer provider unless
// Tracing installs another one.
//
//	reg := prometheus.NewRegistry()
//	telemetry.Prometheus(telemetry.WithRegistry(reg))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package telemetry
