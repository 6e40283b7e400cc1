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

// Package compression compresses response bodies with Brotli or gzip,
// negotiated from the Accept-Encoding request header.
//
// # Basic Usage
//
//	r.Use(compression.New(
//	    compression.WithMinSize(1024),
//	    compression.WithExcludePaths("/metrics"),
//	))
//
// Responses are passed through untouched when the handler already set a
// Content-Encoding (precompressed static files), for 204, 206 and 304
// responses, for HEAD requests, and for streaming or binary content types
// (text/event-stream, application/grpc, application/octet-stream). With a
// minimum size the body is buffered until the threshold is reached; smaller
// bodies are sent as is.
package compression
