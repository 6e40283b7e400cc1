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

package body

import (
	"errors"
	"net/http"
)

// FaultCode is the code reported in failure responses for malformed bodies.
const FaultCode = 400500

// Message is the client facing text of every decoding failure.
const Message = "Can't parse request body"

// Causes wrapped by [*Error].
var (
	// ErrTooLarge is returned when a payload exceeds the limit of its format.
	ErrTooLarge = errors.New("request body too large")

	// ErrUnknownEncoding is returned for a charset with no known decoder.
	ErrUnknownEncoding = errors.New("unknown body encoding")
)

// Error is a request fault produced while decoding a body.
type Error struct {
	// Kind is the format that was being decoded.
	Kind Kind
	Err  error
}

// Error returns [Message]; the cause is available through Unwrap.
func (e *Error) Error() string { return Message }

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus implements the router's status contract.
func (e *Error) HTTPStatus() int { return http.StatusBadRequest }

// FaultCode implements the router's fault code contract.
func (e *Error) FaultCode() int { return FaultCode }
