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

// Package tracing creates OpenTelemetry server spans for requests served
// by a dispatch router.
//
// A [Tracer] extracts the remote span context (W3C trace context and
// baggage by default) from incoming headers, starts a server span and
// places it in the request context, so handlers and loggers see it. When
// the request ends the span is renamed to "METHOD route", where route is
// the terminal route pattern or "_unmatched", and responses with status
// 400 or above are marked as errors.
//
// # Basic Usage
//
//	tracer := tracing.MustNew(
//	    tracing.WithServiceName("files"),
//	    tracing.WithOTLPHTTP("http://localhost:4318"),
//	)
//	defer tracer.Shutdown(context.Background())
//
//	r := router.MustNew(router.WithObservability(tracer))
//
// Combine with metrics through [rivaas.dev/dispatch/router.RecorderChain].
//
// # Providers
//
//   - [NoopProvider] (default): spans are created but not exported
//   - [StdoutProvider]: spans are printed as JSON (development)
//   - [OTLPProvider]: OTLP over gRPC
//   - [OTLPHTTPProvider]: OTLP over HTTP
//
// # Context Helpers
//
//	logger.InfoContext(ctx, "stored", "trace_id", tracing.TraceID(ctx))
//	tracing.AddSpanEventFromContext(ctx, "cache_miss")
package tracing
