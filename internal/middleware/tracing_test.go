package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return rec
}

func TestTracing_SpanNames(t *testing.T) {
	tests := []struct {
		path     string
		wantSpan string
	}{
		{"/feed/mentors", "GET /feed/mentors"},
		{"/feed/users", "GET /feed/users"},
		{"/nope/123", "GET other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := installRecorder(t)
			h := Tracing("mentorfeed-api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			spans := rec.Ended()
			if len(spans) != 1 || spans[0].Name() != tt.wantSpan {
				t.Fatalf("spans = %v, want one named %q", spans, tt.wantSpan)
			}
		})
	}
}

func TestTracing_SkipsProbes(t *testing.T) {
	rec := installRecorder(t)
	h := Tracing("mentorfeed-api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, p := range []string{"/health", "/ready", "/metrics"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	if n := len(rec.Ended()); n != 0 {
		t.Errorf("got %d spans for probe endpoints, want 0", n)
	}
}

func TestTracing_PropagatesIncomingTrace(t *testing.T) {
	installRecorder(t)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	var got string
	h := Tracing("mentorfeed-api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetTraceID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/feed/mentors", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != traceID {
		t.Errorf("trace id = %q, want %q", got, traceID)
	}
}

func TestGetTraceID_NoActiveSpan(t *testing.T) {
	if id := GetTraceID(httptest.NewRequest(http.MethodGet, "/", nil)); id != "" {
		t.Errorf("GetTraceID() = %q, want empty", id)
	}
}
