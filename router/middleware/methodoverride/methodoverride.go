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

// Package methodoverride lets HTML forms reach PUT, PATCH and DELETE routes.
//
// Routes are matched on the request method before any entry runs, so the
// override happens in an http.Handler that wraps the router:
//
//	srv := &http.Server{Handler: methodoverride.Wrap(r)}
//
// A POST carrying X-HTTP-Method-Override: DELETE (or _method=DELETE in the
// query) is dispatched as DELETE. The method the client sent is kept in the
// request context, see [OriginalMethod].
package methodoverride

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

// CSRFVerifiedKey is the context key a CSRF check sets to true once the
// token was verified. It is read when [WithRequireCSRF] is on.
var CSRFVerifiedKey = &contextKey{}

type originalMethodKey struct{}

// Wrap returns a handler that rewrites the method of matching requests
// before calling next.
func Wrap(next http.Handler, opts ...Option) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	allow := make(map[string]bool, len(cfg.allow))
	for _, m := range cfg.allow {
		allow[strings.ToUpper(m)] = true
	}
	onlyOn := make(map[string]bool, len(cfg.onlyOn))
	for _, m := range cfg.onlyOn {
		onlyOn[strings.ToUpper(m)] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !onlyOn[req.Method] {
			next.ServeHTTP(w, req)
			return
		}
		if cfg.requireCSRF {
			if ok, _ := req.Context().Value(CSRFVerifiedKey).(bool); !ok {
				next.ServeHTTP(w, req)
				return
			}
		}

		method := req.Header.Get(cfg.header)
		if method == "" && cfg.queryParam != "" {
			method = req.URL.Query().Get(cfg.queryParam)
		}
		method = strings.ToUpper(strings.TrimSpace(method))
		if method == "" || !allow[method] {
			next.ServeHTTP(w, req)
			return
		}
		if cfg.requireBody && req.ContentLength == 0 {
			next.ServeHTTP(w, req)
			return
		}

		ctx := context.WithValue(req.Context(), originalMethodKey{}, req.Method)
		req = req.WithContext(ctx)
		req.Method = method
		next.ServeHTTP(w, req)
	})
}

// OriginalMethod returns the method the client sent. It equals req.Method
// when no override happened.
func OriginalMethod(req *http.Request) string {
	if m, ok := req.Context().Value(originalMethodKey{}).(string); ok {
		return m
	}
	return req.Method
}
