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

package basicauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/router"
)

func newProtected(opts ...Option) *router.Router {
	r := router.MustNew()
	r.Use(New(opts...))
	r.GET("/private", func(c *router.Context) { _ = c.String(http.StatusOK, "hello "+Username(c)) })
	r.GET("/health", func(c *router.Context) { _ = c.String(http.StatusOK, "up") })
	return r
}

func request(r *router.Router, target string, auth func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if auth != nil {
		auth(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBasicAuth(t *testing.T) {
	t.Parallel()

	r := newProtected(WithUsers(map[string]string{"admin": "s3cret"}), WithRealm("Admin"))

	tests := []struct {
		name   string
		auth   func(*http.Request)
		status int
	}{
		{name: "valid", auth: func(req *http.Request) { req.SetBasicAuth("admin", "s3cret") }, status: http.StatusOK},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong password", auth: func(req *http.Request) { req.SetBasicAuth("admin", "nope") }, status: http.StatusUnauthorized},
		{name: "unknown user", auth: func(req *http.Request) { req.SetBasicAuth("root", "s3cret") }, status: http.StatusUnauthorized},
		{name: "bearer scheme", auth: func(req *http.Request) { req.Header.Set("Authorization", "Bearer token") }, status: http.StatusUnauthorized},
		{name: "bad base64", auth: func(req *http.Request) { req.Header.Set("Authorization", "Basic !!!") }, status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := request(r, "/private", tt.auth)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "hello admin", w.Body.String())
				return
			}
			assert.Equal(t, `Basic realm="Admin", charset="UTF-8"`, w.Header().Get("WWW-Authenticate"))
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.InEpsilon(t, float64(401900), body["code"], 0)
		})
	}
}

func TestBasicAuth_SkipPaths(t *testing.T) {
	t.Parallel()

	r := newProtected(WithSkipPaths("/health"))
	assert.Equal(t, http.StatusOK, request(r, "/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, "/private", nil).Code)
}

func TestBasicAuth_Validator(t *testing.T) {
	t.Parallel()

	r := newProtected(WithValidator(func(u, p string) bool { return u == p }))
	w := request(r, "/private", func(req *http.Request) { req.SetBasicAuth("bob", "bob") })
	assert.Equal(t, "hello bob", w.Body.String())
}

func TestBasicAuth_UnauthorizedHandler(t *testing.T) {
	t.Parallel()

	reached := false
	r := router.MustNew()
	r.Use(New(WithUnauthorizedHandler(func(c *router.Context) {
		_ = c.String(http.StatusForbidden, "go away")
	})))
	r.GET("/private", func(*router.Context) { reached = true })

	w := request(r, "/private", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "go away", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
	assert.False(t, reached)
}
