package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func TestTracingPassesSpanContext(t *testing.T) {
	var extracted, sawSpan bool

	r := chi.NewRouter()
	r.Use(Tracing(WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
		extracted = true
		return []attribute.KeyValue{attribute.String("test.attr", "ok")}
	})))
	r.Get("/story/{id}", func(w http.ResponseWriter, r *http.Request) {
		sawSpan = trace.SpanFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/story/1", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !extracted || !sawSpan {
		t.Errorf("extracted = %v, sawSpan = %v", extracted, sawSpan)
	}
}

func TestTracingFilter(t *testing.T) {
	extracted := false
	h := Tracing(
		WithRequestFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }),
		WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
			extracted = true
			return nil
		}),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if extracted {
		t.Error("filtered request was traced")
	}
}
