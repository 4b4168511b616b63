package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/smart-goals/internal/goals"
	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage/memstore"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestEngineSpansJoinRequestTrace checks that spans started by the goal
// engine are children of the otelmux server span and keep an incoming
// traceparent.
func TestEngineSpansJoinRequestTrace(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	store := memstore.New()
	engine := goals.New(store, store, nil)
	userID := uuid.New()

	r := mux.NewRouter()
	r.Use(otelmux.Middleware(ServiceName))
	r.HandleFunc("/goals", func(w http.ResponseWriter, r *http.Request) {
		if _, err := engine.GetGoals(r.Context(), userID, models.GoalFilter{}); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		traceParent string
	}{
		{name: "new trace"},
		{name: "incoming trace", traceParent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			req := httptest.NewRequest(http.MethodGet, "/goals", nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}

			spans := exporter.GetSpans()
			var server, engineSpan *tracetest.SpanStub
			for i := range spans {
				switch spans[i].Name {
				case "goals.GetGoals":
					engineSpan = &spans[i]
				default:
					server = &spans[i]
				}
			}
			if server == nil || engineSpan == nil {
				t.Fatalf("spans = %d, want a server span and an engine span", len(spans))
			}
			if engineSpan.Parent.SpanID() != server.SpanContext.SpanID() {
				t.Error("engine span is not a child of the request span")
			}
			if tt.traceParent != "" && engineSpan.SpanContext.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
				t.Errorf("trace id = %s, want the incoming one", engineSpan.SpanContext.TraceID())
			}
		})
	}
}
