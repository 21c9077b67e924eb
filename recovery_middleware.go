/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"fmt"
	"github.com/example/booksearch/booksearchapi"
	"go.uber.org/zap"
	"net/http"
	"runtime/debug"
)

type implRecoveryMiddleware struct {
	beanOrder int

	Log *zap.Logger `inject:""`
}

// RecoveryMiddleware turns a handler panic into 500 so the server keeps serving.
func RecoveryMiddleware(beanOrder int) booksearchapi.HttpMiddleware {
	return &implRecoveryMiddleware{beanOrder: beanOrder}
}

func (t *implRecoveryMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				t.Log.Error("PanicRecovered",
					zap.String("panic", fmt.Sprint(rec)),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("requestId", RequestIdFromContext(r.Context())))
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"status": "error",
					"error":  "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (t *implRecoveryMiddleware) Match(pattern string) bool {
	return true
}

func (t *implRecoveryMiddleware) BeanOrder() int {
	return t.beanOrder
}
