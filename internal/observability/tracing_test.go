package observability

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracerRecordsSpansToExporter(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, shutdown := NewTracer(TraceConfig{
		ServiceName: "agentcore-test",
		Exporter:    exporter,
	})
	defer shutdown(context.Background())

	_, span := tracer.TraceProviderCall(context.Background(), "anthropic", "claude-3")
	tracer.AddEvent(span, "text_chunk", "bytes", 12)
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "provider.anthropic" {
		t.Errorf("expected span name provider.anthropic, got %s", spans[0].Name)
	}
}

func TestNewTracerNoExporterStillStartsSpans(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{ServiceName: "agentcore-test"})
	defer shutdown(context.Background())

	_, span := tracer.Start(context.Background(), "noop")
	span.End()
}

var _ sdktrace.SpanExporter = (*tracetest.InMemoryExporter)(nil)
