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
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/dispatch/router"
)

var _ router.ObservabilityRecorder = (*Tracer)(nil)

type spanState struct {
	span   trace.Span
	method string
}

// OnRequestStart extracts the remote span context from the request headers
// and starts a server span. The span is renamed to "METHOD route" when the
// request ends. Excluded paths return a nil state and an unchanged context.
func (t *Tracer) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	if t.isShuttingDown.Load() || t.filter.Match(req.URL.Path) {
		return ctx, nil
	}

	ctx = t.propagator.Extract(ctx, propagation.HeaderCarrier(req.Header))
	ctx, span := t.tracer.Start(ctx, req.Method, trace.WithSpanKind(trace.SpanKindServer))
	st := &spanState{span: span, method: req.Method}
	if !span.IsRecording() {
		return ctx, st
	}

	attrs := make([]attribute.KeyValue, 0, 6+len(t.recordHeaders))
	attrs = append(attrs,
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.URL.Path),
		attribute.String("server.address", req.Host),
		attribute.String("user_agent.original", req.UserAgent()),
	)
	if req.URL.RawQuery != "" {
		attrs = append(attrs, attribute.String("url.query", req.URL.RawQuery))
	}
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	attrs = append(attrs, attribute.String("url.scheme", scheme))
	for _, h := range t.recordHeaders {
		if v := req.Header.Get(h); v != "" {
			attrs = append(attrs, attribute.String("http.request.header."+strings.ToLower(h), v))
		}
	}
	span.SetAttributes(attrs...)
	return ctx, st
}

// WrapResponseWriter returns a writer reporting the response status.
func (t *Tracer) WrapResponseWriter(w http.ResponseWriter, _ any) http.ResponseWriter {
	if _, ok := w.(router.ResponseInfo); ok {
		return w
	}
	return router.NewResponseInfoWriter(w)
}

// OnRequestEnd names the span after the route, records the status and ends
// the span. Responses with status 400 or above mark the span as an error.
func (t *Tracer) OnRequestEnd(_ context.Context, state any, w http.ResponseWriter, routePattern string) {
	st, ok := state.(*spanState)
	if !ok {
		return
	}
	span := st.span
	defer span.End()
	if !span.IsRecording() {
		return
	}

	status := http.StatusOK
	if info, ok := w.(router.ResponseInfo); ok {
		status = info.StatusCode()
	}

	span.SetName(st.method + " " + routePattern)
	span.SetAttributes(
		attribute.String("http.route", routePattern),
		attribute.Int("http.response.status_code", status),
	)
	if status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
