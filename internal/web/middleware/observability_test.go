// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ManuGH/issuedesk/internal/telemetry"
)

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(0))
	assert.Equal(t, "3xx", statusClass(http.StatusSeeOther))
	assert.Equal(t, "4xx", statusClass(http.StatusUnprocessableEntity))
	assert.Equal(t, "5xx", statusClass(http.StatusServiceUnavailable))
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Post("/issues/{id}/delete", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/issues", http.StatusSeeOther)
	})

	counter := httpRequests.WithLabelValues(http.MethodPost, "/issues/{id}/delete", "3xx")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/issues/"+id+"/delete", nil))
	}
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestTracing_NamesSpanAfterRoute(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r := chi.NewRouter()
	r.Use(Tracing("test"))
	r.Get("/issues/{id}/convert/{kind}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/browse/DEMO-2", http.StatusSeeOther)
	})

	r.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/issues/2/convert/subtask-to-issue?version=secret", nil))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /issues/{id}/convert/{kind}", ended[0].Name())

	got := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "/issues/2/convert/subtask-to-issue", got[telemetry.HTTPURLKey])
	assert.Equal(t, "303", got[telemetry.HTTPStatusCodeKey])
	assert.Equal(t, "/browse/DEMO-2", got["http.redirect"])
}
