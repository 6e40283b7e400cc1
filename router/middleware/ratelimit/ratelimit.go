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
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	dispatcherrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/telemetry/semconv"
)

// ErrTooManyRequests is written when a client exceeds its limit.
var ErrTooManyRequests = dispatcherrors.New(http.StatusTooManyRequests, 429900, "Too many requests")

// KeyFunc derives the bucket key of a request, per client, user or route.
type KeyFunc func(*router.Context) string

// Meta describes a rejected request.
type Meta struct {
	Limit        int
	Remaining    int
	ResetSeconds int
	Window       time.Duration
	Key          string
	Route        string
	Method       string
	ClientIP     string
}

// CommonOptions is shared by both algorithms.
type CommonOptions struct {
	Key        KeyFunc
	Headers    bool // emit RateLimit-* headers
	Enforce    bool // false runs in report-only mode
	OnExceeded func(*router.Context, Meta)
	Logger     *slog.Logger
}

// TokenBucket refills Rate tokens per second up to Burst.
type TokenBucket struct {
	Rate  float64
	Burst int
	Store TokenBucketStore
}

// TokenBucketStore keeps token buckets by key. Implementations backed by a
// shared cache make the limit global across replicas.
type TokenBucketStore interface {
	// Allow takes one token for key and reports the tokens left and the
	// seconds until the bucket is full again.
	Allow(key string, now time.Time) (allowed bool, remaining int, resetSeconds int)
}

// SlidingWindow allows Limit requests per Window.
type SlidingWindow struct {
	Window time.Duration
	Limit  int
	Store  WindowStore
}

// WindowStore keeps per-key counters of fixed windows.
type WindowStore interface {
	// GetCounts returns the current and previous window counts and the
	// start of the current window in unix seconds.
	GetCounts(ctx context.Context, key string, window time.Duration) (curr, prev int, windowStart int64, err error)
	// Incr counts one request in the current window.
	Incr(ctx context.Context, key string, window time.Duration) error
}

// New returns a token bucket limiter keyed by client IP.
// Defaults: 100 requests per second with a burst of 20.
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	common := CommonOptions{
		Key:     cfg.keyFunc,
		Headers: !cfg.noHeaders,
		Enforce: !cfg.reportOnly,
		Logger:  cfg.logger,
	}
	if cfg.onLimitExceeded != nil {
		common.OnExceeded = func(c *router.Context, _ Meta) {
			cfg.onLimitExceeded(c)
		}
	}

	store := NewInMemoryTokenBucketStore(cfg.requestsPerSecond, cfg.burst,
		WithCleanup(cfg.cleanupInterval, cfg.limiterTTL))
	return WithTokenBucket(TokenBucket{
		Rate:  cfg.requestsPerSecond,
		Burst: cfg.burst,
		Store: store,
	}, common)
}

// WithTokenBucket returns a token bucket limiter.
func WithTokenBucket(tb TokenBucket, opts CommonOptions) router.HandlerFunc {
	if opts.Key == nil {
		opts.Key = ByClientIP
	}
	store := tb.Store
	if store == nil {
		store = NewInMemoryTokenBucketStore(tb.Rate, tb.Burst)
	}

	return func(c *router.Context) {
		key := opts.Key(c)
		allowed, remaining, reset := store.Allow(key, time.Now())

		if opts.Headers {
			c.Header("RateLimit-Limit", strconv.Itoa(tb.Burst))
			c.Header("RateLimit-Remaining", strconv.Itoa(remaining))
			c.Header("RateLimit-Reset", strconv.Itoa(reset))
		}
		if !allowed && reject(c, opts, Meta{
			Limit:        tb.Burst,
			ResetSeconds: reset,
			Window:       time.Second,
			Key:          key,
		}) {
			return
		}
		c.Next()
	}
}

// WithSlidingWindow returns a sliding window limiter. Store errors let the
// request through.
func WithSlidingWindow(sw SlidingWindow, opts CommonOptions) router.HandlerFunc {
	if opts.Key == nil {
		opts.Key = ByClientIP
	}
	if sw.Store == nil {
		sw.Store = NewInMemoryStore()
	}
	if sw.Window <= 0 {
		sw.Window = time.Minute
	}
	windowSecs := max(1, int64(sw.Window/time.Second))

	return func(c *router.Context) {
		ctx := c.Request.Context()
		key := opts.Key(c)
		now := time.Now()

		curr, prev, start, err := sw.Store.GetCounts(ctx, key, sw.Window)
		if err != nil {
			if opts.Logger != nil {
				opts.Logger.WarnContext(ctx, "rate limit store error", "error", err, "key", key)
			}
			c.Next()
			return
		}

		elapsed := min(now.Sub(time.Unix(start, 0)), sw.Window)
		prevWeight := max(0, 1-float64(elapsed)/float64(sw.Window))
		usage := float64(curr) + float64(prev)*prevWeight
		exceeded := int(usage) >= sw.Limit

		if !exceeded {
			if err := sw.Store.Incr(ctx, key, sw.Window); err != nil && opts.Logger != nil {
				opts.Logger.WarnContext(ctx, "rate limit store error", "error", err, "key", key)
			}
			usage++
		}
		remaining := max(0, sw.Limit-int(usage))
		reset := max(0, int(start+windowSecs-now.Unix()))

		if opts.Headers {
			c.Header("RateLimit-Limit", fmt.Sprintf("%d;w=%d", sw.Limit, windowSecs))
			c.Header("RateLimit-Remaining", strconv.Itoa(remaining))
			c.Header("RateLimit-Reset", strconv.Itoa(reset))
		}
		if exceeded && reject(c, opts, Meta{
			Limit:        sw.Limit,
			ResetSeconds: reset,
			Window:       sw.Window,
			Key:          key,
		}) {
			return
		}
		c.Next()
	}
}

// reject handles an exceeded limit and reports whether the chain stopped.
func reject(c *router.Context, opts CommonOptions, meta Meta) bool {
	meta.Method = c.Request.Method
	meta.ClientIP = ClientIP(c.Request)
	if rt := c.Route(); rt != nil {
		meta.Route = rt.Path()
	}

	if opts.Logger != nil {
		opts.Logger.LogAttrs(c.Request.Context(), slog.LevelWarn, "rate limit exceeded",
			slog.String("key", meta.Key),
			slog.String(semconv.Route, meta.Route),
			slog.Int("limit", meta.Limit),
			slog.Bool("enforced", opts.Enforce),
		)
	}

	if opts.OnExceeded != nil {
		opts.OnExceeded(c, meta)
		c.Abort()
		return true
	}
	if !opts.Enforce {
		return false
	}
	c.Header("Retry-After", strconv.Itoa(max(1, meta.ResetSeconds)))
	c.WriteError(ErrTooManyRequests)
	return true
}

// PerRoute marks a limiter meant for a single route's handler list.
//
//	export := ratelimit.WithSlidingWindow(
//	    ratelimit.SlidingWindow{Window: time.Minute, Limit: 5},
//	    ratelimit.CommonOptions{Headers: true, Enforce: true},
//	)
//	r.GET("/export", ratelimit.PerRoute(export), exportHandler)
func PerRoute(m router.HandlerFunc) router.HandlerFunc {
	return m
}

// ByClientIP keys requests by client address.
func ByClientIP(c *router.Context) string {
	return "ip:" + ClientIP(c.Request)
}

// ByHeader keys requests by a header value such as an API key, falling back
// to the client address when the header is missing.
func ByHeader(name string) KeyFunc {
	return func(c *router.Context) string {
		if v := c.Request.Header.Get(name); v != "" {
			return "hdr:" + v
		}
		return ByClientIP(c)
	}
}

// ClientIP prefers the first X-Forwarded-For hop, then the remote address.
func ClientIP(req *http.Request) string {
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
