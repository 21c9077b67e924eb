/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"context"
	"github.com/example/booksearch/booksearchapi"
	"github.com/pkg/errors"
	"reflect"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// AuthInfo is attached to the request context of authenticated requests.
type AuthInfo struct {
	HashedToken string
	Subject     string
}

var AuthenticatorClass = reflect.TypeOf((*Authenticator)(nil)).Elem()

type Authenticator interface {

	/*
		Authenticates bearer token, returns ErrUnauthorized for unknown tokens
		and ErrServiceUnavailable if the backing store is not reachable.
	*/

	Authenticate(token string) (AuthInfo, error)
}

type authContextKeyType struct{}

var authContextKey = authContextKeyType{}

// AuthFromContext returns the AuthInfo stored by the auth middleware.
func AuthFromContext(ctx context.Context) (AuthInfo, bool) {
	info, ok := ctx.Value(authContextKey).(AuthInfo)
	return info, ok
}

type requestIdKeyType struct{}

var requestIdKey = requestIdKeyType{}

// RequestIdFromContext returns the request id assigned by the request id middleware.
func RequestIdFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIdKey).(string); ok {
		return id
	}
	return ""
}

// compile-time checks of the built-in components
var (
	_ booksearchapi.HttpMiddleware  = (*implAuthMiddleware)(nil)
	_ booksearchapi.HttpMiddleware  = (*implGzipMiddleware)(nil)
	_ booksearchapi.HttpMiddleware  = (*implRateLimiterMiddleware)(nil)
	_ booksearchapi.HttpMiddleware  = (*implRecoveryMiddleware)(nil)
	_ booksearchapi.HttpMiddleware  = (*implRequestIdMiddleware)(nil)
	_ booksearchapi.HttpMiddleware  = (*implAccessLogMiddleware)(nil)
	_ booksearchapi.HttpMiddleware  = (*implMetricsMiddleware)(nil)
	_ booksearchapi.HttpMiddleware  = (*implTracingMiddleware)(nil)
	_ booksearchapi.MethodsHandler  = (*implHealthHandler)(nil)
	_ booksearchapi.MethodsHandler  = (*implInfoHandler)(nil)
	_ booksearchapi.MethodsHandler  = (*implStatusHandler)(nil)
	_ booksearchapi.MethodsHandler  = (*implMetricsHandler)(nil)
	_ booksearchapi.HealthIndicator = (*implDataSource)(nil)
	_ booksearchapi.Component       = (*implDataSource)(nil)
	_ booksearchapi.Server          = (*implHttpServer)(nil)
	_ booksearchapi.LogFile         = (*implLogFile)(nil)
)
