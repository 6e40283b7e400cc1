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

// Package recovery provides an entry that recovers from panics in the
// stages and handlers that run after it.
//
// The panic is logged with a stack trace, the active OpenTelemetry span
// is marked as failed, and a 500 response is written through the
// router's error formatter unless a response was already started.
//
// # Basic Usage
//
//	r := router.MustNew()
//	r.Use(recovery.New(recovery.WithLogger(logger)))
//
// Register it before other entries so it covers them too.
//
// # OpenTelemetry Integration
//
// When the request context carries a recording span the middleware sets:
//
//   - exception.escaped: true
//   - exception.type: type of the panic value
//   - exception.message: string form of the panic value
package recovery
