/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"reflect"
	"strconv"
	"time"
)

var MetricsClass = reflect.TypeOf((*Metrics)(nil)).Elem()

/*
Metrics owns the prometheus registry of the application.
*/
type Metrics interface {
	Registry() *prometheus.Registry

	ObserveRequest(route, method string, status int, duration time.Duration)
}

type implMetrics struct {
	Namespace string `value:"metrics.namespace,default=booksearch"`

	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewMetrics() Metrics {
	return &implMetrics{}
}

func (t *implMetrics) PostConstruct() error {
	t.registry = prometheus.NewRegistry()

	// Go standard metrics and process/OS metrics.
	t.registry.MustRegister(collectors.NewGoCollector())
	t.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	t.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: t.Namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	t.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: t.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	t.registry.MustRegister(t.requestsTotal, t.requestDuration)
	return nil
}

func (t *implMetrics) Registry() *prometheus.Registry {
	return t.registry
}

func (t *implMetrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	t.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	t.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

func (t *implMetrics) BeanName() string {
	return "metrics"
}

func (t *implMetrics) GetStats(cb func(name, value string) bool) error {
	families, err := t.registry.Gather()
	if err != nil {
		return err
	}
	return emitStats(cb, "families", strconv.Itoa(len(families)))
}
