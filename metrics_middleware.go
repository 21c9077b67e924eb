/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/example/booksearch/booksearchapi"
	"net/http"
	"time"
)

type implMetricsMiddleware struct {
	beanOrder int

	Metrics Metrics `inject:""`
}

// MetricsMiddleware counts requests and observes their duration labelled by route pattern.
func MetricsMiddleware(beanOrder int) booksearchapi.HttpMiddleware {
	return &implMetricsMiddleware{beanOrder: beanOrder}
}

func (t *implMetricsMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		t.Metrics.ObserveRequest(routeTemplate(r), r.Method, sw.Status(), time.Since(start))
	})
}

func (t *implMetricsMiddleware) Match(pattern string) bool {
	return true
}

func (t *implMetricsMiddleware) BeanOrder() int {
	return t.beanOrder
}
