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

package router

import "errors"

var (
	// ErrNilHandler indicates that a handler stage is nil.
	ErrNilHandler = errors.New("handler must not be nil")

	// ErrNoHandlers indicates that a route or entry was registered without handlers.
	ErrNoHandlers = errors.New("at least one handler is required")

	// ErrNoMethods indicates that a route or entry resolved to an empty method set.
	ErrNoMethods = errors.New("method set must not be empty")

	// ErrInvalidPath indicates that a path template could not be compiled.
	ErrInvalidPath = errors.New("invalid path template")

	// ErrFrozen indicates that registration was attempted after activation.
	ErrFrozen = errors.New("router is frozen; register routes before the first request")

	// ErrNoTemplate indicates that a render route has no template configured.
	ErrNoTemplate = errors.New("render template is undefined")

	// ErrUploadConfig indicates that the upload stage could not be built.
	ErrUploadConfig = errors.New("invalid upload configuration")

	// ErrBodyConfig indicates that the body decoding stage could not be built.
	ErrBodyConfig = errors.New("invalid body configuration")

	// ErrValidatorCompile indicates that a route's annotation schema failed to compile.
	ErrValidatorCompile = errors.New("validator compilation failed")

	// ErrServerTimeoutInvalid indicates that the server timeout value must be positive.
	ErrServerTimeoutInvalid = errors.New("server timeout must be positive")

	// ErrResponseWriterNotHijacker indicates that ResponseWriter does not implement the http.Hijacker interface.
	ErrResponseWriterNotHijacker = errors.New("responseWriter does not implement http.Hijacker")

	// ErrContextResponseNil indicates that the context response is nil.
	ErrContextResponseNil = errors.New("context response is nil")
)
