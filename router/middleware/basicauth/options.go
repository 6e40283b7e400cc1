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

package basicauth

import (
	"crypto/sha256"

	"rivaas.dev/dispatch/router"
)

// WithUsers adds username/password pairs.
func WithUsers(users map[string]string) Option {
	return func(cfg *config) {
		for name, password := range users {
			cfg.users[name] = sha256.Sum256([]byte(password))
		}
	}
}

// WithRealm sets the realm of the challenge. Default: "Restricted".
func WithRealm(realm string) Option {
	return func(cfg *config) {
		cfg.realm = realm
	}
}

// WithValidator checks credentials with fn instead of the user table.
// fn should compare secrets in constant time.
func WithValidator(fn func(username, password string) bool) Option {
	return func(cfg *config) {
		cfg.validator = fn
	}
}

// WithUnauthorizedHandler replaces the default 401 error body. The
// challenge header is already set and the chain is aborted afterwards.
func WithUnauthorizedHandler(handler func(c *router.Context)) Option {
	return func(cfg *config) {
		cfg.unauthorizedHandler = handler
	}
}

// WithSkipPaths exempts exact paths.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			cfg.skipPaths[p] = true
		}
	}
}
