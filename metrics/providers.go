// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"fmt"
	"os"
	"strings"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "rivaas.dev/dispatch/metrics"

func (r *Recorder) initializeProvider() error {
	if r.customMeterProvider {
		r.meter = r.meterProvider.Meter(meterName)
		return r.initializeInstruments()
	}

	var (
		mp  *sdkmetric.MeterProvider
		err error
	)
	switch r.provider {
	case PrometheusProvider:
		mp, err = r.initPrometheusProvider()
	case OTLPProvider:
		mp, err = r.initOTLPProvider()
	case StdoutProvider:
		mp, err = r.initStdoutProvider()
	}
	if err != nil {
		return err
	}

	r.meterProvider = mp
	if r.registerGlobal {
		otel.SetMeterProvider(mp)
	}
	r.meter = mp.Meter(meterName)
	r.logger.Debug("metrics provider initialized", "provider", string(r.provider))
	return r.initializeInstruments()
}

// initPrometheusProvider uses a private registry so several recorders can
// coexist in one process.
func (r *Recorder) initPrometheusProvider() (*sdkmetric.MeterProvider, error) {
	r.prometheusRegistry = promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(r.prometheusRegistry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	r.prometheusHandler = promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)), nil
}

func (r *Recorder) initOTLPProvider() (*sdkmetric.MeterProvider, error) {
	endpoint, insecure := r.otlpEndpoint, false
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		endpoint, insecure = strings.TrimPrefix(endpoint, "http://"), true
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	if i := strings.Index(endpoint, "/"); i != -1 {
		endpoint = endpoint[:i]
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), nil
}

func (r *Recorder) initStdoutProvider() (*sdkmetric.MeterProvider, error) {
	w := r.stdoutWriter
	if w == nil {
		w = os.Stdout
	}
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), nil
}

func (r *Recorder) initializeInstruments() error {
	var err error

	r.requestDuration, err = r.meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	r.requestCount, err = r.meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request count counter: %w", err)
	}

	r.activeRequests, err = r.meter.Int64UpDownCounter(
		"http_requests_active",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create active requests gauge: %w", err)
	}

	r.requestSize, err = r.meter.Int64Histogram(
		"http_request_size_bytes",
		metric.WithDescription("Size of HTTP request bodies in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(r.sizeBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create request size histogram: %w", err)
	}

	r.responseSize, err = r.meter.Int64Histogram(
		"http_response_size_bytes",
		metric.WithDescription("Size of HTTP response bodies in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(r.sizeBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create response size histogram: %w", err)
	}

	r.errorCount, err = r.meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP responses with a 4xx or 5xx status"),
	)
	if err != nil {
		return fmt.Errorf("failed to create error count counter: %w", err)
	}

	return nil
}
