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

// Package accesslog writes one structured log record per request.
//
// Records carry the method, path, terminal route pattern, status, duration
// and response size, plus the request ID and trace IDs when the requestid
// and tracing packages are in use. Client and server errors are logged at
// WARN and ERROR, and slow requests are flagged.
//
// # Basic Usage
//
//	r.Use(
//	    requestid.New(),
//	    accesslog.New(
//	        accesslog.WithLogger(logger),
//	        accesslog.WithExcludePaths("/healthz", "/metrics"),
//	        accesslog.WithSlowThreshold(500*time.Millisecond),
//	    ),
//	)
//
// # Sampling
//
// WithSampleRate keeps a fraction of successful, fast requests. The
// decision hashes the request ID, so every replica makes the same choice
// for the same request. Errors and slow requests are always logged.
package accesslog
