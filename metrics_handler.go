/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/example/booksearch/booksearchapi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"net/http"
)

type implMetricsHandler struct {
	Log     *zap.Logger `inject:""`
	Metrics Metrics     `inject:""`

	handler http.Handler
}

// MetricsHandler exposes the application registry in the prometheus text format.
func MetricsHandler() booksearchapi.MethodsHandler {
	return &implMetricsHandler{}
}

func (t *implMetricsHandler) PostConstruct() error {
	t.handler = promhttp.HandlerFor(t.Metrics.Registry(), promhttp.HandlerOpts{
		ErrorLog:           zap.NewStdLog(t.Log),
		ErrorHandling:      promhttp.ContinueOnError,
		DisableCompression: true,
	})
	return nil
}

func (t *implMetricsHandler) Pattern() string {
	return "/metrics"
}

func (t *implMetricsHandler) Methods() []string {
	return getOnly
}

func (t *implMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.handler.ServeHTTP(w, r)
}
