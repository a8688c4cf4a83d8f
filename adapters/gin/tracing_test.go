package authgin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return exporter
}

func TestTracing_SpanPerRequest(t *testing.T) {
	exporter := installTestTracer(t)

	engine := gin.New()
	engine.Use(Tracing("insights"))
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d ended spans, want 1", len(spans))
	}
	if spans[0].Name != "HTTP GET /ok" {
		t.Fatalf("span name = %q", spans[0].Name)
	}
}

// A panicking handler is recovered further up the chain; the request span
// must still be ended and exported.
func TestTracing_SpanEndsOnPanic(t *testing.T) {
	exporter := installTestTracer(t)

	engine := gin.New()
	engine.Use(gin.Recovery(), Tracing("insights"))
	engine.GET("/boom", func(c *gin.Context) { panic("handler exploded") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d ended spans, want 1", len(spans))
	}
	if spans[0].Name != "HTTP GET /boom" {
		t.Fatalf("span name = %q", spans[0].Name)
	}
}
