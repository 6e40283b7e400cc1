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

// Package errors formats request failures as HTTP responses.
//
// The package defines a [Formatter] interface with two implementations:
//   - [Simple]: {"code": 400500, "message": "..."} bodies (application/json), the default
//   - [RFC9457]: RFC 9457 Problem Details (application/problem+json), with
//     problem types registered per fault code
//
// Errors opt into richer responses through optional interfaces:
//   - [ErrorType] declares the HTTP status
//   - [ErrorCode] declares a numeric fault code
//   - [ErrorDetails] exposes structured details, rendered as "errors"
//
// The faults of the body, upload and validation packages implement all of
// them, so the router can write any of them with [Write]:
//
//	if err := errors.Write(w, r, errors.NewSimple(), err); err != nil {
//		logger.Error("write failure response", "error", err)
//	}
//
// Errors that declare no status are answered with 500. Set
// [Simple.HideInternal] to replace their message with the status text.
package errors
