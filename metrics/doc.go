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

// Package metrics records request metrics for a dispatch router through
// OpenTelemetry instruments.
//
// A [Recorder] implements the router's observability hooks: every request
// served by the router is timed and counted, labeled with the terminal
// route pattern ("_unmatched" when no route answered) rather than the raw
// path, which keeps label cardinality bounded.
//
// # Basic Usage
//
//	recorder := metrics.MustNew(metrics.WithServiceName("files"))
//	defer recorder.Shutdown(context.Background())
//
//	r := router.MustNew(router.WithObservability(recorder))
//	handler, _ := recorder.Handler()
//	r.GET("/metrics", router.WrapHandler(handler))
//
// # Providers
//
// Three providers are supported:
//   - [PrometheusProvider] (default): metrics are scraped from [Recorder.Handler]
//   - [OTLPProvider]: metrics are pushed to an OTLP HTTP collector
//   - [StdoutProvider]: metrics are printed periodically (development)
//
// [WithMeterProvider] replaces them with a caller-managed provider.
//
// # Global State
//
// The global OpenTelemetry meter provider is left untouched unless
// [WithGlobalMeterProvider] is given.
package metrics
