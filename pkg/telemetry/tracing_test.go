package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestStartSpanWithProvider(t *testing.T) {
	Tracing(WithTracerProvider(noop.NewTracerProvider()), WithTracerName("xform-test"))
	defer Tracing()

	ctx, span := StartSpan(context.Background(), "form.Submit", attribute.String("xform.model", "Model_1"))
	if ctx == nil || span == nil {
		t.Fatal("expected context and span")
	}
	EndSpan(span, nil)
}

func TestEndSpanErrors(t *testing.T) {
	for _, err := range []error{errors.New("boom"), context.Canceled} {
		_, span := StartSpan(context.Background(), "asyncvalue.evaluate")
		EndSpan(span, err)
	}
}
