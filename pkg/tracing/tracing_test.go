package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTraceIDFromContextEmptyWithoutSpan(t *testing.T) {
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Errorf("TraceIDFromContext = %q, want empty", got)
	}
	if got := SpanIDFromContext(context.Background()); got != "" {
		t.Errorf("SpanIDFromContext = %q, want empty", got)
	}
}

func TestHTTPMiddlewareCreatesSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	var traceID, spanID string
	handler := HTTPMiddleware("test-service")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceIDFromContext(r.Context())
		spanID = SpanIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/detectors", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if traceID == "" || spanID == "" {
		t.Fatalf("handler saw no span: trace=%q span=%q", traceID, spanID)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name != "GET /api/v1/detectors" {
		t.Errorf("span name = %q", spans[0].Name)
	}
}

func TestInitTracerSetsGlobalProvider(t *testing.T) {
	tp, err := InitTracer("test-service")
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	if otel.GetTracerProvider() != tp {
		t.Error("global tracer provider not installed")
	}
}
