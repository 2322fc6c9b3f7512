package telemetry

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name.
const defaultTracerName = "xform"

// TracingConfig configures span creation.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "xform").
	TracerName string

	// Provider supplies the tracer. If nil, the global provider is used at
	// each span start so a provider installed later is picked up.
	Provider trace.TracerProvider
}

// TracingOption configures span creation.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = tp
	}
}

var (
	tracingConfig   = TracingConfig{TracerName: defaultTracerName}
	tracingConfigMu sync.RWMutex
)

// Tracing replaces the span configuration.
func Tracing(opts ...TracingOption) {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tracingConfigMu.Lock()
	tracingConfig = config
	tracingConfigMu.Unlock()
}

func tracer() trace.Tracer {
	tracingConfigMu.RLock()
	config := tracingConfig
	tracingConfigMu.RUnlock()

	if config.Provider != nil {
		return config.Provider.Tracer(config.TracerName)
	}
	return otel.Tracer(config.TracerName)
}

// StartSpan starts an internal span named name.
//
//	ctx, span := telemetry.StartSpan(ctx, "form.Submit", attribute.String("xform.model", id))
//	defer func() { telemetry.EndSpan(span, err) }()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records err on span, if any, and ends it. Context cancellation is
// recorded as an event rather than an error status.
func EndSpan(span trace.Span, err error) {
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, context.Canceled):
		span.AddEvent("cancelled")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
