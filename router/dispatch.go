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
	"log/slog"
	"maps"
	"net/http"

	"rivaas.dev/dispatch/router/compiler"
)

// unmatchedPattern is reported to the observability recorder when no
// terminal route matched.
const unmatchedPattern = "_unmatched"

// ServeHTTP implements http.Handler. Requests no route matches answer
// 404; a failure escalated by a stage is logged and answers 500.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.serve(w, req, http.NotFoundHandler())
}

// Handler returns a handler dispatching through the router and passing
// unmatched requests to next.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.Handle("/", r.Handler(legacy))
func (r *Router) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.serve(w, req, next)
	})
}

func (r *Router) serve(w http.ResponseWriter, req *http.Request, next http.Handler) {
	ctx := req.Context()
	var obsState any

	if r.observability != nil {
		var enrichedCtx context.Context
		enrichedCtx, obsState = r.observability.OnRequestStart(ctx, req)
		if enrichedCtx != ctx {
			ctx = enrichedCtx
			req = req.WithContext(ctx)
		}
		if obsState != nil {
			w = r.observability.WrapResponseWriter(w, obsState)
		}
	}

	rw := wrapWriter(w)
	route, err := r.dispatch(rw, req, next)
	if err != nil {
		r.logger.ErrorContext(ctx, "request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Any("error", err),
		)
		if !rw.Written() {
			http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}

	if obsState != nil {
		pattern := unmatchedPattern
		if route != nil {
			pattern = route.path
		}
		r.observability.OnRequestEnd(ctx, obsState, w, pattern)
	}
}

// Dispatch runs the request through the router.
//
// The terminal route is the last registered route matching the method and
// path. When none matches, next is called (when non-nil) and Dispatch
// returns nil. Otherwise every matching entry runs in registration order,
// followed by the terminal route. The only error returned is a render
// failure without an error handler, or an activation failure.
func (r *Router) Dispatch(w http.ResponseWriter, req *http.Request, next http.Handler) error {
	_, err := r.dispatch(wrapWriter(w), req, next)
	return err
}

func (r *Router) dispatch(w *responseWriter, req *http.Request, next http.Handler) (*Route, error) {
	if err := r.Activate(); err != nil {
		return nil, err
	}

	method, path := req.Method, req.URL.Path
	route, captures := r.lookup(method, path)
	if route == nil {
		if next != nil {
			next.ServeHTTP(w, req)
		}
		return nil, nil
	}

	c := newContext(r, w, req, route, r.pipeline(route, captures, method, path))
	c.Next()
	return route, c.escalated
}

// lookup scans the routes from the most recently registered one.
func (r *Router) lookup(method, path string) (*Route, compiler.Params) {
	for i := len(r.routes) - 1; i >= 0; i-- {
		if params, ok := r.routes[i].Match(method, path); ok {
			return r.routes[i], params
		}
	}
	return nil, nil
}

// pipeline concatenates the matching entries and the terminal route, each
// chain preceded by a stage that installs its captures. Terminal captures
// are applied last and win on conflict.
func (r *Router) pipeline(route *Route, captures compiler.Params, method, path string) []HandlerFunc {
	var handlers []HandlerFunc
	for _, e := range r.entries {
		params, ok := e.Match(method, path)
		if !ok {
			continue
		}
		handlers = append(handlers, r.inject(route, params, captures))
		handlers = append(handlers, e.handlers...)
	}
	handlers = append(handlers, r.inject(route, captures, captures))
	return append(handlers, route.handlers...)
}

func (r *Router) inject(route *Route, params, terminal compiler.Params) HandlerFunc {
	return func(c *Context) {
		c.route = route
		c.router = r
		merged := maps.Clone(c.params)
		if merged == nil {
			merged = make(map[string]string, len(params)+len(terminal))
		}
		maps.Copy(merged, params)
		maps.Copy(merged, terminal)
		c.params = merged
	}
}

func wrapWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w}
}
