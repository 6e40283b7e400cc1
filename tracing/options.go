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
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a [Tracer].
type Option func(*Tracer)

// WithTracerProvider uses a caller-managed provider. Provider options are
// ignored and Shutdown leaves the provider running.
//
// Example:
//
//	recorder := tracetest.NewSpanRecorder()
//	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
//	tracer := tracing.MustNew(tracing.WithTracerProvider(tp))
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.tracerProvider = provider
		t.customTracerProvider = true
	}
}

// WithGlobalTracerProvider registers the provider with otel.SetTracerProvider.
// By default nothing global is touched.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) {
		t.registerGlobal = true
	}
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) {
		t.serviceVersion = version
	}
}

// WithSampleRate samples root spans with the given probability in [0, 1].
// Child spans follow the sampling decision of their remote parent.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) {
		t.sampleRate = rate
	}
}

// WithPropagator replaces the default W3C trace context and baggage propagator.
func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		t.propagator = propagator
	}
}

// WithLogger sets the logger for provider lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithHeaders records the named request headers as http.request.header.<name>
// span attributes.
func WithHeaders(headers ...string) Option {
	return func(t *Tracer) {
		t.recordHeaders = append(t.recordHeaders, headers...)
	}
}

// OTLPOption configures the OTLP gRPC exporter.
type OTLPOption func(*Tracer)

// OTLPInsecure disables TLS for the OTLP gRPC connection.
func OTLPInsecure() OTLPOption {
	return func(t *Tracer) {
		t.otlpInsecure = true
	}
}

// WithOTLP exports spans over OTLP gRPC to endpoint, in "host:port" form.
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithOTLP("localhost:4317", tracing.OTLPInsecure()))
func WithOTLP(endpoint string, opts ...OTLPOption) Option {
	return func(t *Tracer) {
		t.provider = OTLPProvider
		t.otlpEndpoint = endpoint
		t.providerSetCount++
		for _, opt := range opts {
			opt(t)
		}
	}
}

// WithOTLPHTTP exports spans over OTLP HTTP to endpoint, e.g.
// "http://localhost:4318".
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		t.otlpEndpoint = endpoint
		t.providerSetCount++
	}
}

// WithStdout prints ended spans to w, or standard output when w is nil.
func WithStdout(w io.Writer) Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.stdoutWriter = w
		t.providerSetCount++
	}
}

// WithNoop creates spans without exporting them.
func WithNoop() Option {
	return func(t *Tracer) {
		t.provider = NoopProvider
		t.providerSetCount++
	}
}

// WithProvider selects a provider by name, for configuration files. The
// endpoint, when needed, comes from WithOTLPEndpoint.
func WithProvider(p Provider) Option {
	return func(t *Tracer) {
		t.provider = p
		t.providerSetCount++
	}
}

// WithOTLPEndpoint sets the collector endpoint without selecting a provider.
func WithOTLPEndpoint(endpoint string) Option {
	return func(t *Tracer) {
		t.otlpEndpoint = endpoint
	}
}

// WithExcludePaths skips tracing for requests with exactly these paths.
func WithExcludePaths(paths ...string) Option {
	return func(t *Tracer) {
		t.filter.Exact(paths...)
	}
}

// WithExcludePrefixes skips tracing for requests whose path has one of
// these prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(t *Tracer) {
		t.filter.Prefix(prefixes...)
	}
}

// WithExcludePatterns skips tracing for requests whose path matches one of
// these regular expressions. An invalid pattern fails New.
func WithExcludePatterns(patterns ...string) Option {
	return func(t *Tracer) {
		if err := t.filter.Pattern(patterns...); err != nil {
			t.validationErrors = append(t.validationErrors, err)
		}
	}
}
