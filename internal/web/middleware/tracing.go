// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/issuedesk/internal/telemetry"
	"github.com/ManuGH/issuedesk/internal/web/problem"
)

// Tracing opens a server span per request and continues inbound W3C trace
// context. Workflow spans started by the handlers become its children.
func Tracing(tracerName string) func(http.Handler) http.Handler {
	tracer := telemetry.Tracer(tracerName)
	propagator := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			span.SetName(r.Method + " " + route)
			// Only the path: query strings carry issue keys and XSRF tokens.
			attrs := telemetry.HTTPAttributes(r.Method, route, r.URL.Path, status)
			if id := ww.Header().Get(problem.HeaderRequestID); id != "" {
				attrs = append(attrs, attribute.String(telemetry.HTTPRequestIDKey, id))
			}
			if loc := ww.Header().Get("Location"); loc != "" && status >= 300 && status < 400 {
				attrs = append(attrs, attribute.String("http.redirect", loc))
			}
			span.SetAttributes(attrs...)

			if status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}
