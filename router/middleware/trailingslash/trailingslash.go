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

// Package trailingslash gives every resource one canonical URL.
//
// The router tolerates a trailing slash, so /users and /users/ reach the
// same route. Wrap the router to redirect one form to the other, or to
// reject the slash form outright:
//
//	srv := &http.Server{Handler: trailingslash.Wrap(r)}
package trailingslash

import (
	"net/http"
	"strings"

	dispatcherrors "rivaas.dev/dispatch/errors"
)

// Policy decides what happens to a path whose trailing slash does not
// match the canonical form.
type Policy int

const (
	// PolicyRemove redirects /users/ to /users with 308.
	PolicyRemove Policy = iota
	// PolicyAdd redirects /users to /users/ with 308.
	PolicyAdd
	// PolicyStrict answers 404 for paths ending in a slash.
	PolicyStrict
)

// ErrNotFound is written for slash paths under PolicyStrict.
var ErrNotFound = dispatcherrors.New(http.StatusNotFound, 404900, "Not found")

// Option configures [Wrap].
type Option func(*config)

type config struct {
	policy    Policy
	formatter dispatcherrors.Formatter
	skip      []string
}

// WithPolicy sets the policy. Default: [PolicyRemove].
func WithPolicy(p Policy) Option {
	return func(cfg *config) {
		cfg.policy = p
	}
}

// WithFormatter sets how the PolicyStrict 404 is rendered.
// Default: the simple JSON formatter.
func WithFormatter(f dispatcherrors.Formatter) Option {
	return func(cfg *config) {
		cfg.formatter = f
	}
}

// WithSkipPrefixes leaves paths under the prefixes untouched, such as a
// static directory whose index pages need the slash.
func WithSkipPrefixes(prefixes ...string) Option {
	return func(cfg *config) {
		cfg.skip = append(cfg.skip, prefixes...)
	}
}

// Wrap applies the policy before next sees the request. The root path is
// never changed.
func Wrap(next http.Handler, opts ...Option) http.Handler {
	cfg := &config{formatter: dispatcherrors.NewSimple()}
	for _, opt := range opts {
		opt(cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path
		if path == "/" || cfg.skipped(path) {
			next.ServeHTTP(w, req)
			return
		}
		hasSlash := strings.HasSuffix(path, "/")

		switch cfg.policy {
		case PolicyRemove:
			if hasSlash {
				redirect(w, req, strings.TrimSuffix(path, "/"))
				return
			}
		case PolicyAdd:
			if !hasSlash {
				redirect(w, req, path+"/")
				return
			}
		case PolicyStrict:
			if hasSlash {
				_ = dispatcherrors.Write(w, req, cfg.formatter, ErrNotFound)
				return
			}
		}
		next.ServeHTTP(w, req)
	})
}

func (cfg *config) skipped(path string) bool {
	for _, p := range cfg.skip {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// redirect answers 308 so the method and body are kept.
func redirect(w http.ResponseWriter, req *http.Request, path string) {
	u := *req.URL
	u.Path = path
	u.RawPath = ""
	w.Header().Set("Location", u.RequestURI())
	w.WriteHeader(http.StatusPermanentRedirect)
}
