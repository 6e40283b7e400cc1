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

package errors_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"rivaas.dev/dispatch/errors"
)

// ExampleRFC9457 maps a fault code to a problem type.
func ExampleRFC9457() {
	formatter := errors.NewRFC9457("https://dispatch.example/problems").
		WithProblemType(500500, "upload-rejected", "Upload rejected")
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)

	response := formatter.Format(req, errors.New(http.StatusInternalServerError, 500500, "File is too large."))
	problem := response.Body.(errors.ProblemDetail)

	_, _ = fmt.Printf("Status: %d\n", response.Status)
	_, _ = fmt.Printf("Content-Type: %s\n", response.ContentType)
	_, _ = fmt.Printf("Type: %s\n", problem.Type)
	_, _ = fmt.Printf("Title: %s\n", problem.Title)
	// Output:
	// Status: 500
	// Content-Type: application/problem+json; charset=utf-8
	// Type: https://dispatch.example/problems/upload-rejected
	// Title: Upload rejected
}

// ExampleSimple demonstrates the default failure body.
func ExampleSimple() {
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	w := httptest.NewRecorder()

	_ = errors.Write(w, req, errors.NewSimple(), errors.New(http.StatusInternalServerError, 500500, "File is too large."))

	_, _ = fmt.Println(w.Code)
	_, _ = fmt.Print(w.Body.String())
	// Output:
	// 500
	// {"code":500500,"message":"File is too large."}
}
