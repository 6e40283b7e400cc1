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

//go:build !integration

package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func problemOf(t *testing.T, resp Response) ProblemDetail {
	t.Helper()
	p, ok := resp.Body.(ProblemDetail)
	require.True(t, ok, "body is %T", resp.Body)
	return p
}

func TestRFC9457_ProblemTypes(t *testing.T) {
	t.Parallel()

	const base = "https://dispatch.example/problems"
	tests := []struct {
		name      string
		formatter *RFC9457
		err       error
		status    int
		typ       string
		title     string
	}{
		{
			name:      "registered fault code",
			formatter: NewRFC9457(base).WithProblemType(400500, "malformed-body", "Malformed request body"),
			err:       &testErrorFull{message: "Can't parse request body", code: 400500, status: http.StatusBadRequest},
			status:    http.StatusBadRequest,
			typ:       base + "/malformed-body",
			title:     "Malformed request body",
		},
		{
			name:      "unregistered fault code",
			formatter: NewRFC9457(base + "/"),
			err:       &testErrorFull{message: "File is too large.", code: 500500, status: http.StatusInternalServerError},
			status:    http.StatusInternalServerError,
			typ:       base + "/500500",
			title:     "Internal Server Error",
		},
		{
			name:      "no base URL",
			formatter: NewRFC9457(""),
			err:       &testErrorWithCode{message: "quota", code: 429001},
			status:    http.StatusInternalServerError,
			typ:       "429001",
			title:     "Internal Server Error",
		},
		{
			name:      "status without code",
			formatter: NewRFC9457(base),
			err:       &testErrorWithStatus{message: "not found", status: http.StatusNotFound},
			status:    http.StatusNotFound,
			typ:       "about:blank",
			title:     "Not Found",
		},
		{
			name: "status resolver",
			formatter: &RFC9457{StatusResolver: func(error) int {
				return http.StatusTeapot
			}},
			err:    &testError{message: "short and stout"},
			status: http.StatusTeapot,
			typ:    "about:blank",
			title:  "I'm a teapot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/orders", nil)
			resp := tt.formatter.Format(req, tt.err)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, "application/problem+json; charset=utf-8", resp.ContentType)

			p := problemOf(t, resp)
			assert.Equal(t, tt.typ, p.Type)
			assert.Equal(t, tt.title, p.Title)
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, tt.err.Error(), p.Detail)
			assert.Equal(t, "/orders", p.Instance)
		})
	}
}

func TestRFC9457_Extensions(t *testing.T) {
	t.Parallel()

	f := NewRFC9457("")
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)

	p := problemOf(t, f.Format(req, &testErrorFull{message: "bad", code: 400400, status: http.StatusBadRequest}))
	assert.Equal(t, 400400, p.Extensions["code"])
	id, ok := p.Extensions["error_id"].(string)
	require.True(t, ok)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	p = problemOf(t, f.Format(req, &testErrorWithDetails{message: "invalid", details: map[string]any{"query.limit": "too large"}}))
	assert.Equal(t, map[string]any{"query.limit": "too large"}, p.Extensions["errors"])
	assert.NotContains(t, p.Extensions, "code")
}

func TestRFC9457_ErrorID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")

	fromHeader := &RFC9457{ErrorID: func(r *http.Request) string { return r.Header.Get("X-Request-ID") }}
	p := problemOf(t, fromHeader.Format(req, &testError{message: "x"}))
	assert.Equal(t, "req-42", p.Extensions["error_id"])

	disabled := &RFC9457{}
	p = problemOf(t, disabled.Format(req, &testError{message: "x"}))
	assert.NotContains(t, p.Extensions, "error_id")
}

func TestRFC9457_HideInternal(t *testing.T) {
	t.Parallel()

	f := NewRFC9457("")
	f.HideInternal = true
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	p := problemOf(t, f.Format(req, &testError{message: "open /var/lib/dispatch: permission denied"}))
	assert.Empty(t, p.Detail)

	p = problemOf(t, f.Format(req, &testErrorWithStatus{message: "not found", status: http.StatusNotFound}))
	assert.Equal(t, "not found", p.Detail)
}

func TestProblemDetail_MarshalJSON(t *testing.T) {
	t.Parallel()

	p := ProblemDetail{
		Type:     "about:blank",
		Title:    "Bad Request",
		Status:   http.StatusBadRequest,
		Instance: "/orders",
		Extensions: map[string]any{
			"code":   400400,
			"status": 999,
			"title":  "overridden",
		},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{
		"type":     "about:blank",
		"title":    "Bad Request",
		"status":   float64(http.StatusBadRequest),
		"instance": "/orders",
		"code":     float64(400400),
	}, got)
}

func TestWrite_RFC9457(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	f := &RFC9457{BaseURL: "https://dispatch.example/problems"}
	f.WithProblemType(500500, "upload-rejected", "Upload rejected")

	require.NoError(t, Write(w, req, f, New(http.StatusInternalServerError, 500500, "File is too large.")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/problem+json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"type": "https://dispatch.example/problems/upload-rejected",
		"title": "Upload rejected",
		"status": 500,
		"detail": "File is too large.",
		"instance": "/upload",
		"code": 500500
	}`, w.Body.String())
}
