/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"context"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"reflect"
	"strconv"
	"time"
)

var TracingClass = reflect.TypeOf((*Tracing)(nil)).Elem()

type Tracing interface {
	Enabled() bool

	TracerProvider() trace.TracerProvider

	Propagator() propagation.TextMapPropagator
}

type implTracing struct {
	Log *zap.Logger `inject:""`

	Endpoint    string `value:"tracing.otlp-endpoint,default="`
	Insecure    bool   `value:"tracing.otlp-insecure,default=false"`
	SampleRatio string `value:"tracing.sample-ratio,default=1"`
	ServiceName string `value:"application.name,default=booksearch"`
	Version     string `value:"application.version,default=dev"`

	provider   trace.TracerProvider
	sdk        *sdktrace.TracerProvider
	propagator propagation.TextMapPropagator
}

/*
NewTracing exports spans over OTLP/HTTP when tracing.otlp-endpoint is set, otherwise tracing is a no-op.
*/
func NewTracing() Tracing {
	return &implTracing{}
}

func (t *implTracing) PostConstruct() error {

	t.sdk = nil

	t.propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

	if t.Endpoint == "" {
		t.provider = noop.NewTracerProvider()
		return nil
	}

	ratio, err := strconv.ParseFloat(t.SampleRatio, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return errors.Errorf("invalid property 'tracing.sample-ratio' value '%s', expected number in [0, 1]", t.SampleRatio)
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(t.Endpoint)}
	if t.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	// the exporter dials lazily, a missing collector never blocks startup
	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return errors.Errorf("failed to create otlp trace exporter for '%s', %v", t.Endpoint, err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", t.ServiceName),
		attribute.String("service.version", t.Version))

	t.sdk = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))))
	t.provider = t.sdk

	t.Log.Info("TracingEnabled", zap.String("endpoint", t.Endpoint), zap.Bool("insecure", t.Insecure))
	return nil
}

func (t *implTracing) Destroy() error {
	if t.sdk == nil {
		return nil
	}
	provider := t.sdk
	t.sdk = nil
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return provider.Shutdown(ctx)
}

func (t *implTracing) Enabled() bool {
	return t.sdk != nil
}

func (t *implTracing) TracerProvider() trace.TracerProvider {
	return t.provider
}

func (t *implTracing) Propagator() propagation.TextMapPropagator {
	return t.propagator
}
