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

package accesslog

import (
	"log/slog"
	"time"

	"rivaas.dev/dispatch/internal/pathfilter"
)

// Option configures the access log middleware.
type Option func(*config)

type config struct {
	logger        *slog.Logger
	exclude       pathfilter.Filter
	sampleRate    float64
	errorsOnly    bool
	slowThreshold time.Duration
}

func defaultConfig() *config {
	return &config{
		sampleRate: 1.0,
	}
}

// WithLogger sets the destination logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithExcludePaths skips logging for exact paths.
func WithExcludePaths(paths ...string) Option {
	return func(cfg *config) {
		cfg.exclude.Exact(paths...)
	}
}

// WithExcludePrefixes skips logging for paths with these prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(cfg *config) {
		cfg.exclude.Prefix(prefixes...)
	}
}

// WithSampleRate keeps the given fraction of successful, fast requests.
func WithSampleRate(rate float64) Option {
	return func(cfg *config) {
		cfg.sampleRate = rate
	}
}

// WithErrorsOnly logs only responses with status 400 or above, and slow requests.
func WithErrorsOnly() Option {
	return func(cfg *config) {
		cfg.errorsOnly = true
	}
}

// WithSlowThreshold flags requests taking at least threshold as slow.
// Zero disables the check.
func WithSlowThreshold(threshold time.Duration) Option {
	return func(cfg *config) {
		cfg.slowThreshold = threshold
	}
}
