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

// Package logging provides structured logging built on log/slog.
//
// # Basic Usage
//
//	logger := logging.MustNew(
//	    logging.WithTextHandler(),
//	    logging.WithLevel(logging.LevelDebug),
//	    logging.WithServiceName("dispatchd"),
//	)
//	logger.Info("listening", "addr", ":8080")
//
// The router accepts the underlying [slog.Logger]:
//
//	r := router.MustNew(router.WithLogger(logger.Logger()))
//
// # Request Loggers
//
// [NewContext] and [FromContext] carry a request scoped logger through a
// context. [ContextLogger] adds trace_id and span_id when the context holds
// an OpenTelemetry span, so log entries correlate with traces.
//
// # Sensitive Data Redaction
//
// Values of the keys password, token, secret, api_key and authorization are
// replaced before any handler sees them. Additional sanitization can be
// installed with [WithReplaceAttr].
package logging
