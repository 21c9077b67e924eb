/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"context"
	"github.com/example/booksearch/booksearchapi"
	"github.com/pkg/errors"
	"net/http"
	"strings"
)

type implAuthMiddleware struct {
	beanOrder int

	// Prefixes protected by bearer token, empty leaves every route open
	Prefixes []string `value:"auth.prefixes,default="`

	Authenticator Authenticator `inject:""`
}

// AuthMiddleware requires a valid bearer token on the matched routes.
func AuthMiddleware(beanOrder int) booksearchapi.HttpMiddleware {
	return &implAuthMiddleware{beanOrder: beanOrder}
}

func (t *implAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		auth, err := t.Authenticator.Authenticate(token)
		switch {
		case err == nil:
		case errors.Is(err, ErrUnauthorized):
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		case errors.Is(err, ErrServiceUnavailable):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey, auth)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func (t *implAuthMiddleware) BeanOrder() int {
	return t.beanOrder
}

func (t *implAuthMiddleware) Match(pattern string) bool {
	return matchPrefixes(t.Prefixes, pattern)
}
