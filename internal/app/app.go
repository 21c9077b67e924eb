/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package app

import (
	"github.com/example/booksearch"
)

// ServerBean is the name of the HTTP server, its properties are prefixed with "server."
const ServerBean = "server"

// Middleware orders, the lowest runs first on the request.
const (
	OrderRecovery  = 0
	OrderRequestId = 10
	OrderTracing   = 20
	OrderMetrics   = 30
	OrderAccessLog = 40
	OrderGzip      = 50
	OrderRateLimit = 60
	OrderAuth      = 70
)

/*
Beans returns every component of the application.
There is no other registration: a component missing here is not part of the context.
*/
func Beans() []interface{} {
	return []interface{}{
		booksearch.NewMetrics(),
		booksearch.NewTracing(),
		booksearch.NewDataSource(),
		booksearch.AuthTokenProvider(),
		booksearch.HttpServerScanner(ServerBean,
			booksearch.HealthHandler(),
			booksearch.InfoHandler(),
			booksearch.StatusHandler(),
			booksearch.MetricsHandler(),

			booksearch.RecoveryMiddleware(OrderRecovery),
			booksearch.RequestIdMiddleware(OrderRequestId),
			booksearch.TracingMiddleware(OrderTracing),
			booksearch.MetricsMiddleware(OrderMetrics),
			booksearch.AccessLogMiddleware(OrderAccessLog),
			booksearch.GzipMiddleware(OrderGzip),
			booksearch.RateLimiterMiddleware(OrderRateLimit),
			booksearch.AuthMiddleware(OrderAuth),
		),
	}
}
