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

package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/dispatch/internal/pathfilter"
)

// Provider selects the span exporter.
type Provider string

const (
	// NoopProvider creates spans without exporting them. Trace IDs are still
	// generated, which keeps log correlation working.
	NoopProvider     Provider = "noop"
	StdoutProvider   Provider = "stdout"
	OTLPProvider     Provider = "otlp"
	OTLPHTTPProvider Provider = "otlp-http"
)

const tracerName = "rivaas.dev/dispatch/tracing"

// Errors returned by [New].
var (
	ErrUnknownProvider     = errors.New("tracing: unsupported provider")
	ErrEmptyServiceName    = errors.New("tracing: service name cannot be empty")
	ErrNilTracerProvider   = errors.New("tracing: custom tracer provider is nil")
	ErrInvalidSampleRate   = errors.New("tracing: sample rate must be between 0 and 1")
	ErrConflictingProvider = errors.New("tracing: only one provider option can be used")
)

// Tracer creates a server span for every request served by the router and
// implements [rivaas.dev/dispatch/router.ObservabilityRecorder].
type Tracer struct {
	tracer         trace.Tracer
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	propagator     propagation.TextMapPropagator
	logger         *slog.Logger

	provider         Provider
	providerSetCount int
	otlpEndpoint     string
	otlpInsecure     bool
	stdoutWriter     io.Writer

	serviceName    string
	serviceVersion string
	sampleRate     float64
	recordHeaders  []string
	filter         pathfilter.Filter

	customTracerProvider bool
	registerGlobal       bool
	isShuttingDown       atomic.Bool
	validationErrors     []error
}

// New creates a Tracer. Without a provider option spans are created by a
// no-op exporter.
//
// Example:
//
//	tracer, err := tracing.New(
//	    tracing.WithServiceName("orders"),
//	    tracing.WithOTLPHTTP("http://localhost:4318"),
//	    tracing.WithExcludePaths("/healthz", "/metrics"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	r := router.MustNew(router.WithObservability(tracer))
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		logger:         slog.New(slog.DiscardHandler),
		provider:       NoopProvider,
		serviceName:    "dispatch",
		serviceVersion: "dev",
		sampleRate:     1.0,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if t.propagator == nil {
		t.propagator = propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)
	}
	if err := t.initializeProvider(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("tracing.MustNew: %v", err))
	}
	return t
}

func (t *Tracer) validate() error {
	if len(t.validationErrors) > 0 {
		return errors.Join(t.validationErrors...)
	}
	if t.providerSetCount > 1 {
		return ErrConflictingProvider
	}
	if t.serviceName == "" {
		return ErrEmptyServiceName
	}
	if t.customTracerProvider && t.tracerProvider == nil {
		return ErrNilTracerProvider
	}
	if t.sampleRate < 0 || t.sampleRate > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, t.sampleRate)
	}
	switch t.provider {
	case NoopProvider, StdoutProvider:
	case OTLPProvider:
		if t.otlpEndpoint == "" {
			t.otlpEndpoint = "localhost:4317"
		}
	case OTLPHTTPProvider:
		if t.otlpEndpoint == "" {
			t.otlpEndpoint = "http://localhost:4318"
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, t.provider)
	}
	return nil
}

// Provider returns the configured exporter.
func (t *Tracer) Provider() Provider { return t.provider }

// ServiceName returns the service.name resource attribute.
func (t *Tracer) ServiceName() string { return t.serviceName }

// ShouldExcludePath reports whether requests for path are not traced.
func (t *Tracer) ShouldExcludePath(path string) bool { return t.filter.Match(path) }

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer { return t.tracer }

// StartSpan starts an internal span as a child of the span in ctx.
// The caller must end the returned span.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// InjectTraceContext writes the span context of ctx into headers, for
// outgoing requests.
func (t *Tracer) InjectTraceContext(ctx context.Context, headers http.Header) {
	t.propagator.Inject(ctx, propagation.HeaderCarrier(headers))
}

// ForceFlush exports all ended spans that have not been exported yet.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	if t.sdkProvider == nil {
		return nil
	}
	return t.sdkProvider.ForceFlush(ctx)
}

// Shutdown flushes and stops the built-in provider. It is safe to call
// more than once. A provider passed with WithTracerProvider is left running.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if !t.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	if t.customTracerProvider || t.sdkProvider == nil {
		return nil
	}
	if err := t.sdkProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}
	return nil
}

// TraceID returns the trace ID of the span in ctx, or "" when there is none.
//
// Example:
//
//	logger.InfoContext(ctx, "order created", "trace_id", tracing.TraceID(ctx))
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanID returns the span ID of the span in ctx, or "" when there is none.
func SpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}

// SetSpanAttributeFromContext adds an attribute to the span in ctx.
// Values other than string, int, int64, float64 and bool are formatted
// with %v.
func SetSpanAttributeFromContext(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(buildAttribute(key, value))
}

// AddSpanEventFromContext adds an event to the span in ctx.
func AddSpanEventFromContext(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func buildAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
