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
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"rivaas.dev/dispatch/router"
)

var _ router.ObservabilityRecorder = (*Recorder)(nil)

// requestState is the per-request state threaded through the router hooks.
type requestState struct {
	start  time.Time
	method string
	attrs  metric.MeasurementOption
}

// OnRequestStart starts timing the request. Excluded paths return a nil
// state so the router skips the other hooks.
func (r *Recorder) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	if r.isShuttingDown.Load() || r.filter.Match(req.URL.Path) {
		return ctx, nil
	}

	attrs := metric.WithAttributes(append(r.serviceAttrs[:len(r.serviceAttrs):len(r.serviceAttrs)],
		attribute.String("http.method", req.Method),
	)...)
	r.activeRequests.Add(ctx, 1, attrs)
	if req.ContentLength > 0 {
		r.requestSize.Record(ctx, req.ContentLength, attrs)
	}
	return ctx, &requestState{start: time.Now(), method: req.Method, attrs: attrs}
}

// WrapResponseWriter returns a writer reporting status and size.
func (r *Recorder) WrapResponseWriter(w http.ResponseWriter, _ any) http.ResponseWriter {
	if _, ok := w.(router.ResponseInfo); ok {
		return w
	}
	return router.NewResponseInfoWriter(w)
}

// OnRequestEnd records the request under its route pattern.
func (r *Recorder) OnRequestEnd(ctx context.Context, state any, w http.ResponseWriter, routePattern string) {
	st, ok := state.(*requestState)
	if !ok {
		return
	}
	r.activeRequests.Add(ctx, -1, st.attrs)

	status, size := http.StatusOK, int64(0)
	if info, ok := w.(router.ResponseInfo); ok {
		status, size = info.StatusCode(), info.Size()
	}
	r.Finish(ctx, st.start, st.method, routePattern, status, size)
}

// Finish records one completed request. It is called by OnRequestEnd and
// may be used by handlers served outside the router.
func (r *Recorder) Finish(ctx context.Context, start time.Time, method, route string, status int, responseSize int64) {
	attrs := metric.WithAttributes(append(r.serviceAttrs[:len(r.serviceAttrs):len(r.serviceAttrs)],
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
		attribute.String("http.status_class", statusClass(status)),
	)...)

	r.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	r.requestCount.Add(ctx, 1, attrs)
	if status >= http.StatusBadRequest {
		r.errorCount.Add(ctx, 1, attrs)
	}
	if responseSize > 0 {
		r.responseSize.Record(ctx, responseSize, attrs)
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
