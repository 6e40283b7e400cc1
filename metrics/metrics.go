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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"rivaas.dev/dispatch/internal/pathfilter"
)

// Default histogram buckets.
var (
	// DefaultDurationBuckets are request duration boundaries in seconds.
	DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// DefaultSizeBuckets are body size boundaries in bytes.
	DefaultSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
)

// Provider selects the metrics exporter.
type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OTLPProvider       Provider = "otlp"
	StdoutProvider     Provider = "stdout"
)

// Errors returned by [New] and [Recorder.Handler].
var (
	ErrNotPrometheus      = errors.New("metrics: handler is only available with the prometheus provider")
	ErrUnknownProvider    = errors.New("metrics: unsupported provider")
	ErrEmptyServiceName   = errors.New("metrics: service name cannot be empty")
	ErrNilMeterProvider   = errors.New("metrics: custom meter provider is nil")
	ErrConflictingOptions = errors.New("metrics: only one provider option can be used")
)

// Recorder holds the meter provider and the request instruments.
// All methods are safe for concurrent use.
type Recorder struct {
	meter              metric.Meter
	meterProvider      metric.MeterProvider
	prometheusRegistry *promclient.Registry
	prometheusHandler  http.Handler
	logger             *slog.Logger

	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
	requestSize     metric.Int64Histogram
	responseSize    metric.Int64Histogram
	errorCount      metric.Int64Counter

	durationBuckets []float64
	sizeBuckets     []float64

	provider         Provider
	providerSetCount int
	otlpEndpoint     string
	stdoutWriter     io.Writer
	exportInterval   time.Duration

	serviceName    string
	serviceVersion string
	serviceAttrs   []attribute.KeyValue

	filter pathfilter.Filter

	customMeterProvider bool
	registerGlobal      bool
	isShuttingDown      atomic.Bool
	validationErrors    []error
}

// New creates a [Recorder] and initializes its provider.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		logger:          slog.New(slog.DiscardHandler),
		provider:        PrometheusProvider,
		exportInterval:  30 * time.Second,
		serviceName:     "dispatch",
		serviceVersion:  "dev",
		durationBuckets: DefaultDurationBuckets,
		sizeBuckets:     DefaultSizeBuckets,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	r.serviceAttrs = []attribute.KeyValue{
		attribute.String("service.name", r.serviceName),
		attribute.String("service.version", r.serviceVersion),
	}
	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("metrics.MustNew: %v", err))
	}
	return r
}

func (r *Recorder) validate() error {
	if len(r.validationErrors) > 0 {
		return errors.Join(r.validationErrors...)
	}
	if r.providerSetCount > 1 {
		return ErrConflictingOptions
	}
	if r.serviceName == "" {
		return ErrEmptyServiceName
	}
	if r.customMeterProvider && r.meterProvider == nil {
		return ErrNilMeterProvider
	}
	switch r.provider {
	case PrometheusProvider, StdoutProvider:
	case OTLPProvider:
		if r.otlpEndpoint == "" {
			r.otlpEndpoint = "http://localhost:4318"
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, r.provider)
	}
	return nil
}

// Handler returns the Prometheus scrape handler.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.prometheusHandler == nil {
		return nil, ErrNotPrometheus
	}
	return r.prometheusHandler, nil
}

// Provider returns the configured provider.
func (r *Recorder) Provider() Provider {
	return r.provider
}

// ServiceName returns the service name attached to every measurement.
func (r *Recorder) ServiceName() string {
	return r.serviceName
}

// ShouldExcludePath reports whether requests for path are not recorded.
func (r *Recorder) ShouldExcludePath(path string) bool {
	return r.filter.Match(path)
}

// ForceFlush exports pending measurements of push providers.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if r.isShuttingDown.Load() {
		return nil
	}
	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok && !r.customMeterProvider {
		if err := mp.ForceFlush(ctx); err != nil {
			return fmt.Errorf("metrics force flush: %w", err)
		}
	}
	return nil
}

// Shutdown flushes and stops the meter provider. A provider passed with
// [WithMeterProvider] is left to its owner. Shutdown is idempotent.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	if r.customMeterProvider {
		return nil
	}
	mp, ok := r.meterProvider.(*sdkmetric.MeterProvider)
	if !ok {
		return nil
	}
	if err := mp.ForceFlush(ctx); err != nil {
		r.logger.Warn("metrics flush failed", "error", err)
	}
	if err := mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}
	return nil
}
