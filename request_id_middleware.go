/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"context"
	"github.com/example/booksearch/booksearchapi"
	"github.com/google/uuid"
	"net/http"
)

const hRequestId = "X-Request-Id"

type implRequestIdMiddleware struct {
	beanOrder int
}

// RequestIdMiddleware keeps the incoming X-Request-Id or generates a new one, and echoes it back.
func RequestIdMiddleware(beanOrder int) booksearchapi.HttpMiddleware {
	return &implRequestIdMiddleware{beanOrder: beanOrder}
}

func (t *implRequestIdMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(hRequestId)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(hRequestId, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIdKey, id)))
	})
}

func (t *implRequestIdMiddleware) Match(pattern string) bool {
	return true
}

func (t *implRequestIdMiddleware) BeanOrder() int {
	return t.beanOrder
}
