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

package router

import (
	"context"
	"net/http"
)

// ObservabilityRecorder provides lifecycle hooks around every request
// served through ServeHTTP or Handler.
//
// Lifecycle:
//  1. OnRequestStart(ctx, req) returns an enriched context and an opaque
//     state; the enriched context is always used.
//  2. When state is non-nil the writer is wrapped with WrapResponseWriter.
//  3. The request is dispatched.
//  4. When state is non-nil OnRequestEnd receives the wrapped writer and
//     the terminal route path, or "_unmatched".
//
// A nil state excludes the request (e.g. /metrics) from recording without
// affecting context enrichment.
//
// Thread safety: All methods must be safe for concurrent use.
type ObservabilityRecorder interface {
	OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any)

	// WrapResponseWriter should return a writer implementing ResponseInfo.
	WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter

	// routePattern is the route template, not the raw path, to keep
	// label cardinality bounded.
	OnRequestEnd(ctx context.Context, state any, writer http.ResponseWriter, routePattern string)
}

// ResponseInfo is implemented by response writers that track response metadata.
type ResponseInfo interface {
	StatusCode() int
	Size() int64
}

// NewResponseInfoWriter wraps w in a writer implementing [ResponseInfo],
// http.Flusher and http.Hijacker, for use by recorders.
func NewResponseInfoWriter(w http.ResponseWriter) http.ResponseWriter {
	return &responseWriter{ResponseWriter: w}
}

// RecorderChain combines recorders. Each recorder keeps its own state;
// the request is excluded only when every recorder excludes it.
type RecorderChain []ObservabilityRecorder

type chainState []any

// OnRequestStart calls every recorder in order, threading the context.
func (rc RecorderChain) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	states := make(chainState, len(rc))
	active := false
	for i, rec := range rc {
		ctx, states[i] = rec.OnRequestStart(ctx, req.WithContext(ctx))
		active = active || states[i] != nil
	}
	if !active {
		return ctx, nil
	}
	return ctx, states
}

// WrapResponseWriter wraps w once per recorder with a non-nil state.
func (rc RecorderChain) WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter {
	states, ok := state.(chainState)
	if !ok {
		return w
	}
	for i, rec := range rc {
		if states[i] != nil {
			w = rec.WrapResponseWriter(w, states[i])
		}
	}
	return w
}

// OnRequestEnd calls every recorder with a non-nil state, in reverse order.
func (rc RecorderChain) OnRequestEnd(ctx context.Context, state any, writer http.ResponseWriter, routePattern string) {
	states, ok := state.(chainState)
	if !ok {
		return
	}
	for i := len(rc) - 1; i >= 0; i-- {
		if states[i] != nil {
			rc[i].OnRequestEnd(ctx, states[i], writer, routePattern)
		}
	}
}
