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

package methodoverride

import "net/http"

// Option configures [Wrap].
type Option func(*config)

type config struct {
	header      string
	queryParam  string
	allow       []string
	onlyOn      []string
	requireCSRF bool
	requireBody bool
}

func defaultConfig() *config {
	return &config{
		header:     "X-HTTP-Method-Override",
		queryParam: "_method",
		allow:      []string{http.MethodPut, http.MethodPatch, http.MethodDelete},
		onlyOn:     []string{http.MethodPost},
	}
}

// WithHeader sets the header carrying the method.
func WithHeader(name string) Option {
	return func(cfg *config) {
		cfg.header = name
	}
}

// WithQueryParam sets the query parameter carrying the method. An empty
// name disables the query lookup.
func WithQueryParam(name string) Option {
	return func(cfg *config) {
		cfg.queryParam = name
	}
}

// WithAllow sets the methods a request may be turned into.
func WithAllow(methods ...string) Option {
	return func(cfg *config) {
		cfg.allow = methods
	}
}

// WithOnlyOn sets the methods that may be overridden. Default: POST.
func WithOnlyOn(methods ...string) Option {
	return func(cfg *config) {
		cfg.onlyOn = methods
	}
}

// WithRequireCSRF only overrides requests whose context has
// [CSRFVerifiedKey] set to true.
func WithRequireCSRF(require bool) Option {
	return func(cfg *config) {
		cfg.requireCSRF = require
	}
}

// WithRequireBody only overrides requests with a non-empty body.
func WithRequireBody(require bool) Option {
	return func(cfg *config) {
		cfg.requireBody = require
	}
}
