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

package errors

import (
	"errors"
	"net/http"
)

// Simple formats errors as {"code": <int>, "message": <string>}.
// It produces responses with Content-Type "application/json".
// Errors implementing [ErrorDetails] add an "errors" member.
//
// Example:
//
//	formatter := errors.NewSimple()
//	response := formatter.Format(req, err)
//	// {"code":400500,"message":"Can't parse request body"}
type Simple struct {
	// StatusResolver determines HTTP status from error.
	// If nil, uses ErrorType interface or defaults to 500.
	StatusResolver func(err error) int

	// HideInternal replaces the message of errors that declare no status
	// with the status text, so unexpected failures do not leak details.
	HideInternal bool
}

// Format converts an error into a simple JSON response. The code is the
// error's [ErrorCode] when it has one and the HTTP status otherwise.
func (f *Simple) Format(req *http.Request, err error) Response {
	status := resolveStatus(f.StatusResolver, err)

	message := err.Error()
	var typed ErrorType
	if f.HideInternal && !errors.As(err, &typed) {
		message = http.StatusText(status)
	}

	code := status
	var coded ErrorCode
	if errors.As(err, &coded) {
		code = coded.FaultCode()
	}

	body := map[string]any{
		"code":    code,
		"message": message,
	}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		body["errors"] = detailed.Details()
	}

	return Response{
		Status:      status,
		ContentType: "application/json; charset=utf-8",
		Body:        body,
	}
}

// resolveStatus asks resolver first, then the [ErrorType] interface, then
// defaults to 500.
func resolveStatus(resolver func(error) int, err error) int {
	if resolver != nil {
		return resolver(err)
	}

	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}

	return http.StatusInternalServerError
}
