/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/example/booksearch/booksearchapi"
	"go.uber.org/zap"
	"net/http"
	"time"
)

type implAccessLogMiddleware struct {
	beanOrder int

	Log *zap.Logger `inject:""`

	SkipPrefixes []string `value:"accesslog.skip,default=/health;/metrics"`
}

func AccessLogMiddleware(beanOrder int) booksearchapi.HttpMiddleware {
	return &implAccessLogMiddleware{beanOrder: beanOrder}
}

func (t *implAccessLogMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		t.Log.Info("HttpRequest",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.Status()),
			zap.Int("bytes", sw.size),
			zap.Duration("latency", time.Since(start)),
			zap.String("remoteAddr", r.RemoteAddr),
			zap.String("requestId", RequestIdFromContext(r.Context())))
	})
}

func (t *implAccessLogMiddleware) Match(pattern string) bool {
	return !matchPrefixes(t.SkipPrefixes, pattern)
}

func (t *implAccessLogMiddleware) BeanOrder() int {
	return t.beanOrder
}
