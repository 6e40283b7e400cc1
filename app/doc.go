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

// Package app assembles a dispatch server from [config.Settings]: the
// logger, metrics and tracing, the middleware stack, health endpoints and
// the server lifecycle.
//
// # Overview
//
// The router package is a plain layered dispatcher. app wires it the way a
// deployed service needs it:
//
//   - a structured logger built from the logging section
//   - request metrics and tracing when enabled, with a scrape endpoint for
//     the Prometheus provider
//   - request ID, access log, recovery, security headers, compression,
//     timeout, rate limit and basic auth entries, in that order
//   - method override and trailing slash policies applied before matching
//   - liveness and readiness endpoints
//   - lifecycle hooks, a startup banner, graceful shutdown and reload on
//     SIGHUP
//
// # Usage
//
//	s, _, err := config.LoadSettings(ctx,
//	    config.WithOptionalFile("dispatch.yaml"),
//	    config.WithEnv("DISPATCH_"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	a, err := app.New(s)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	a.Router().GET("/orders/:id", getOrder)
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer cancel()
//	if err := a.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Entries registered by New run before any route added afterwards, so
// routes added through [App.Router] see the whole middleware stack.
package app
