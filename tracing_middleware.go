/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/example/booksearch/booksearchapi"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"net/http"
)

const tracerName = "github.com/example/booksearch"

type implTracingMiddleware struct {
	beanOrder int

	Tracing Tracing `inject:""`
}

// TracingMiddleware starts a server span per request, continuing the W3C trace context of the caller.
func TracingMiddleware(beanOrder int) booksearchapi.HttpMiddleware {
	return &implTracingMiddleware{beanOrder: beanOrder}
}

func (t *implTracingMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := t.Tracing.TracerProvider().Tracer(tracerName)
		route := routeTemplate(r)
		ctx := t.Tracing.Propagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("url.path", r.URL.Path)))
		defer span.End()

		if id := RequestIdFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String("http.request.id", id))
		}

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r.WithContext(ctx))

		status := sw.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}

func (t *implTracingMiddleware) Match(pattern string) bool {
	return true
}

func (t *implTracingMiddleware) BeanOrder() int {
	return t.beanOrder
}
