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

// Package basicauth protects the handlers after it with HTTP Basic
// authentication (RFC 7617).
//
// Passwords are compared in constant time. Failures answer 401 with a
// WWW-Authenticate challenge and stop the chain.
//
// Example:
//
//	r.UseAt("/admin/:rest*", basicauth.New(
//	    basicauth.WithUsers(map[string]string{"admin": os.Getenv("ADMIN_PASSWORD")}),
//	    basicauth.WithRealm("Admin"),
//	))
package basicauth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strconv"

	"rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/router"
)

// ErrUnauthorized is written when credentials are missing or wrong.
var ErrUnauthorized = errors.New(http.StatusUnauthorized, 401900, "Unauthorized")

type usernameKey struct{}

// Option configures the basic auth middleware.
type Option func(*config)

type config struct {
	users               map[string][sha256.Size]byte
	realm               string
	validator           func(username, password string) bool
	unauthorizedHandler func(c *router.Context)
	skipPaths           map[string]bool
}

func defaultConfig() *config {
	return &config{
		users:     make(map[string][sha256.Size]byte),
		realm:     "Restricted",
		skipPaths: make(map[string]bool),
	}
}

func (cfg *config) authenticate(username, password string) bool {
	if cfg.validator != nil {
		return cfg.validator(username, password)
	}
	want, ok := cfg.users[username]
	got := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(got[:], want[:]) == 1 && ok
}

// New returns an entry that requires valid Basic credentials. The
// authenticated user name is available through [Username].
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	challenge := "Basic realm=" + strconv.Quote(cfg.realm) + `, charset="UTF-8"`

	return func(c *router.Context) {
		if cfg.skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		username, password, ok := c.Request.BasicAuth()
		if !ok || !cfg.authenticate(username, password) {
			c.Response.Header().Set("WWW-Authenticate", challenge)
			if cfg.unauthorizedHandler != nil {
				cfg.unauthorizedHandler(c)
				c.Abort()
			} else {
				c.WriteError(ErrUnauthorized)
			}
			return
		}

		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), usernameKey{}, username))
		c.Next()
	}
}

// Username returns the authenticated user name, or "".
func Username(c *router.Context) string {
	if name, ok := c.Request.Context().Value(usernameKey{}).(string); ok {
		return name
	}
	return ""
}
