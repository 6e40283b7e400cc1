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

package semconv

// Service fields, added once to every record of a logger.
const (
	ServiceName    = "service"
	ServiceVersion = "version"
	Environment    = "env"
)

// HTTP request fields.
const (
	Method    = "method"
	Path      = "path"
	Route     = "route"
	Status    = "status"
	Proto     = "proto"
	UserAgent = "user_agent"
	ClientIP  = "client_ip"

	// Duration is the handling time in whole milliseconds.
	Duration  = "duration_ms"
	BytesSent = "bytes_sent"

	// Slow is set on access records over the slow threshold.
	Slow = "slow"
)

// Correlation fields. RequestID is also the key the request ID is stored
// under in the router context.
const (
	RequestID = "request_id"
	TraceID   = "trace_id"
	SpanID    = "span_id"
)

// Panic report fields.
const (
	Panic = "panic"
	Stack = "stack"
)
