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

package timeout

import (
	"log/slog"
	"time"

	"rivaas.dev/dispatch/router"
)

// WithDuration sets the deadline. Default: 30s. Zero or less disables it.
func WithDuration(d time.Duration) Option {
	return func(cfg *config) {
		cfg.duration = d
	}
}

// WithLogger logs timeouts to logger instead of the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithHandler replaces the default 503 response.
//
// Example:
//
//	timeout.WithHandler(func(c *router.Context, d time.Duration) {
//	    c.JSON(http.StatusGatewayTimeout, map[string]string{"timeout": d.String()})
//	})
func WithHandler(handler func(c *router.Context, timeout time.Duration)) Option {
	return func(cfg *config) {
		if handler != nil {
			cfg.handler = handler
		}
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

// WithSkipPrefix exempts paths with these prefixes.
func WithSkipPrefix(prefixes ...string) Option {
	return func(cfg *config) {
		cfg.skipPrefixes = append(cfg.skipPrefixes, prefixes...)
	}
}

// WithSkipSuffix exempts paths with these suffixes.
func WithSkipSuffix(suffixes ...string) Option {
	return func(cfg *config) {
		cfg.skipSuffixes = append(cfg.skipSuffixes, suffixes...)
	}
}

// WithSkip exempts requests for which fn returns true.
func WithSkip(fn func(c *router.Context) bool) Option {
	return func(cfg *config) {
		cfg.skipFunc = fn
	}
}
