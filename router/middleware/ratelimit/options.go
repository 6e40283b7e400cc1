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

package ratelimit

import (
	"log/slog"
	"time"

	"rivaas.dev/dispatch/router"
)

// Option configures [New].
type Option func(*config)

type config struct {
	requestsPerSecond float64
	burst             int
	keyFunc           KeyFunc
	onLimitExceeded   func(*router.Context)
	cleanupInterval   time.Duration
	limiterTTL        time.Duration
	reportOnly        bool
	noHeaders         bool
	logger            *slog.Logger
}

func defaultConfig() *config {
	return &config{
		requestsPerSecond: 100,
		burst:             20,
		cleanupInterval:   time.Minute,
		limiterTTL:        5 * time.Minute,
	}
}

// WithRequestsPerSecond sets the refill rate. Default: 100.
func WithRequestsPerSecond(rps float64) Option {
	return func(cfg *config) {
		cfg.requestsPerSecond = rps
	}
}

// WithBurst sets the bucket capacity. Default: 20.
func WithBurst(burst int) Option {
	return func(cfg *config) {
		cfg.burst = burst
	}
}

// WithKeyFunc sets how requests are grouped. Default: [ByClientIP].
func WithKeyFunc(fn KeyFunc) Option {
	return func(cfg *config) {
		cfg.keyFunc = fn
	}
}

// WithHandler replaces the 429 response. The chain is aborted afterwards.
func WithHandler(fn func(*router.Context)) Option {
	return func(cfg *config) {
		cfg.onLimitExceeded = fn
	}
}

// WithCleanupInterval sets how often idle buckets are looked for.
func WithCleanupInterval(d time.Duration) Option {
	return func(cfg *config) {
		cfg.cleanupInterval = d
	}
}

// WithLimiterTTL sets how long an idle bucket is kept.
func WithLimiterTTL(d time.Duration) Option {
	return func(cfg *config) {
		cfg.limiterTTL = d
	}
}

// WithReportOnly sets the headers and logs but lets every request through.
func WithReportOnly() Option {
	return func(cfg *config) {
		cfg.reportOnly = true
	}
}

// WithoutHeaders disables the RateLimit-* headers.
func WithoutHeaders() Option {
	return func(cfg *config) {
		cfg.noHeaders = true
	}
}

// WithLogger logs rejected requests.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}
