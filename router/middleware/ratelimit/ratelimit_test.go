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

package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/router"
)

func newLimited(limiter router.HandlerFunc) *router.Router {
	r := router.MustNew()
	r.Use(limiter)
	r.GET("/items", func(c *router.Context) { _ = c.String(http.StatusOK, "ok") })
	return r
}

func send(r *router.Router, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNew_TokenBucket(t *testing.T) {
	t.Parallel()

	r := newLimited(New(WithRequestsPerSecond(0.001), WithBurst(2)))

	w := send(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("RateLimit-Remaining"))

	w = send(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))

	w = send(r, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Positive(t, retry)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InEpsilon(t, float64(429900), body["code"], 0)

	// Another client has its own bucket.
	w = send(r, func(req *http.Request) { req.RemoteAddr = "10.0.0.2:5555" })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_KeyByHeader(t *testing.T) {
	t.Parallel()

	r := newLimited(New(WithRequestsPerSecond(0.001), WithBurst(1), WithKeyFunc(ByHeader("X-API-Key"))))
	withKey := func(key string) func(*http.Request) {
		return func(req *http.Request) { req.Header.Set("X-API-Key", key) }
	}

	assert.Equal(t, http.StatusOK, send(r, withKey("a")).Code)
	assert.Equal(t, http.StatusTooManyRequests, send(r, withKey("a")).Code)
	assert.Equal(t, http.StatusOK, send(r, withKey("b")).Code)
}

func TestNew_ReportOnly(t *testing.T) {
	t.Parallel()

	r := newLimited(New(WithRequestsPerSecond(0.001), WithBurst(1), WithReportOnly()))
	for range 3 {
		w := send(r, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))
	}
}

func TestNew_CustomHandler(t *testing.T) {
	t.Parallel()

	r := newLimited(New(
		WithRequestsPerSecond(0.001),
		WithBurst(1),
		WithoutHeaders(),
		WithHandler(func(c *router.Context) { _ = c.String(http.StatusServiceUnavailable, "slow down") }),
	))

	assert.Equal(t, http.StatusOK, send(r, nil).Code)
	w := send(r, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "slow down", w.Body.String())
	assert.Empty(t, w.Header().Get("RateLimit-Limit"))
}

func TestWithSlidingWindow(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	store.now = func() time.Time { return time.Unix(1_000_020, 0) }

	var exceeded Meta
	r := router.MustNew()
	r.GET("/items", PerRoute(WithSlidingWindow(
		SlidingWindow{Window: time.Minute, Limit: 2, Store: store},
		CommonOptions{
			Headers:    true,
			Enforce:    true,
			OnExceeded: func(c *router.Context, m Meta) { exceeded = m; c.WriteError(ErrTooManyRequests) },
		},
	)), func(c *router.Context) { _ = c.String(http.StatusOK, "ok") })

	w := send(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2;w=60", w.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send(r, nil).Code)

	w = send(r, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "ip:10.0.0.1", exceeded.Key)
	assert.Equal(t, "/items", exceeded.Route)
	assert.Equal(t, http.MethodGet, exceeded.Method)
	assert.Equal(t, 2, exceeded.Limit)
}

func TestInMemoryTokenBucketStore(t *testing.T) {
	t.Parallel()

	s := NewInMemoryTokenBucketStore(1, 2)
	t0 := time.Unix(1_700_000_000, 0)

	allowed, remaining, reset := s.Allow("k", t0)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, 1, reset)

	allowed, remaining, reset = s.Allow("k", t0)
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, 2, reset)

	allowed, _, _ = s.Allow("k", t0)
	assert.False(t, allowed)

	allowed, _, _ = s.Allow("k", t0.Add(time.Second))
	assert.True(t, allowed)
}

func TestInMemoryTokenBucketStore_Cleanup(t *testing.T) {
	t.Parallel()

	s := NewInMemoryTokenBucketStore(1, 1, WithCleanup(time.Second, time.Second))
	t0 := time.Unix(1_700_000_000, 0)

	s.Allow("a", t0)
	assert.Equal(t, 1, s.Len())

	s.Allow("b", t0.Add(2*time.Second))
	assert.Equal(t, 1, s.Len())
}

func TestInMemoryStore_Roll(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_000, 0)
	s := NewInMemoryStore()
	s.now = func() time.Time { return now }
	ctx := t.Context()

	for range 3 {
		require.NoError(t, s.Incr(ctx, "k", 10*time.Second))
	}
	curr, prev, start, err := s.GetCounts(ctx, "k", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, curr)
	assert.Equal(t, 0, prev)
	assert.Equal(t, int64(1_000), start)

	now = time.Unix(1_012, 0)
	curr, prev, start, _ = s.GetCounts(ctx, "k", 10*time.Second)
	assert.Equal(t, 0, curr)
	assert.Equal(t, 3, prev)
	assert.Equal(t, int64(1_010), start)

	now = time.Unix(1_040, 0)
	curr, prev, _, _ = s.GetCounts(ctx, "k", 10*time.Second)
	assert.Equal(t, 0, curr)
	assert.Equal(t, 0, prev)
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}
