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

/*
Package middleware groups the entries that are commonly registered with
[rivaas.dev/dispatch/router.Router.Use]. Each one lives in its own
sub-package; this package only holds shared test helpers.

Security:
  - security: response headers such as CSP, X-Frame-Options and HSTS
  - basicauth: HTTP Basic authentication

Observability:
  - requestid: request ID generation and propagation
  - accesslog: one structured log record per request

Reliability:
  - recovery: turns panics into 500 responses
  - timeout: bounds how long handlers may run
  - ratelimit: token bucket and sliding window limits per client

Performance:
  - compression: gzip and brotli response compression

CORS and body size limits are part of the router itself, see
[rivaas.dev/dispatch/router.WithCORS] and [rivaas.dev/dispatch/router.WithBody].

Two packages act before routing and wrap the router as an http.Handler
instead: methodoverride and trailingslash.

Entries run in registration order and each calls c.Next, so recovery
should come before anything that may panic and accesslog before the
entries whose outcome it should see:

	r := router.MustNew(router.WithLogger(logger))
	r.Use(
	    requestid.New(requestid.WithLogger(logger)),
	    accesslog.New(),
	    recovery.New(),
	    security.New(),
	    compression.New(),
	)
	srv := &http.Server{Handler: trailingslash.Wrap(methodoverride.Wrap(r))}
*/
package middleware
