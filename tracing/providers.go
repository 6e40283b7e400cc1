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
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func (t *Tracer) initializeProvider(ctx context.Context) error {
	if t.customTracerProvider {
		t.logger.Debug("using custom tracer provider")
		t.tracer = t.tracerProvider.Tracer(tracerName)
		if t.registerGlobal {
			otel.SetTracerProvider(t.tracerProvider)
		}
		return nil
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch t.provider {
	case NoopProvider:
	case StdoutProvider:
		exporter, err = t.newStdoutExporter()
	case OTLPProvider:
		exporter, err = t.newOTLPExporter(ctx)
	case OTLPHTTPProvider:
		exporter, err = t.newOTLPHTTPExporter(ctx)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownProvider, t.provider)
	}
	if err != nil {
		return err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(newResource(t.serviceName, t.serviceVersion)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	t.sdkProvider = tp
	t.tracerProvider = tp
	t.tracer = tp.Tracer(tracerName)
	if t.registerGlobal {
		otel.SetTracerProvider(tp)
	}
	t.logger.Info("tracing initialized",
		"provider", string(t.provider),
		"endpoint", t.otlpEndpoint,
		"service", t.serviceName,
	)
	return nil
}

func (t *Tracer) newStdoutExporter() (sdktrace.SpanExporter, error) {
	w := t.stdoutWriter
	if w == nil {
		w = os.Stdout
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}
	return exporter, nil
}

func (t *Tracer) newOTLPExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(t.otlpEndpoint)}
	if t.otlpInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
	}
	return exporter, nil
}

// newOTLPHTTPExporter accepts "http://host:port" (plain text) or
// "https://host:port"; a trailing path is ignored.
func (t *Tracer) newOTLPHTTPExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	endpoint, insecure := t.otlpEndpoint, false
	if trimmed, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, insecure = trimmed, true
	} else if trimmed, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint = trimmed
	}
	if idx := strings.Index(endpoint, "/"); idx != -1 {
		endpoint = endpoint[:idx]
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
	}
	return exporter, nil
}

func newResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}
