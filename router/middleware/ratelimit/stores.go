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
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// InMemoryTokenBucketStore keeps one [rate.Limiter] per key. Buckets idle
// for longer than the TTL are dropped during cleanup.
type InMemoryTokenBucketStore struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     rate.Limit
	burst    int
	interval time.Duration
	ttl      time.Duration
	lastScan time.Time
}

// StoreOption configures an in-memory store.
type StoreOption func(*InMemoryTokenBucketStore)

// WithCleanup scans for idle buckets at most once per interval and drops
// those unused for ttl. Non-positive values disable cleanup.
func WithCleanup(interval, ttl time.Duration) StoreOption {
	return func(s *InMemoryTokenBucketStore) {
		s.interval = interval
		s.ttl = ttl
	}
}

// NewInMemoryTokenBucketStore creates a store refilling rps tokens per
// second up to burst.
func NewInMemoryTokenBucketStore(rps float64, burst int, opts ...StoreOption) *InMemoryTokenBucketStore {
	s := &InMemoryTokenBucketStore{
		buckets:  make(map[string]*bucket),
		rate:     rate.Limit(rps),
		burst:    max(1, burst),
		interval: time.Minute,
		ttl:      5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow implements [TokenBucketStore].
func (s *InMemoryTokenBucketStore) Allow(key string, now time.Time) (bool, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanup(now)
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)
	remaining := max(0, int(math.Floor(tokens)))

	reset := 0
	if missing := float64(s.burst) - tokens; missing > 0 && s.rate > 0 {
		reset = int(math.Ceil(missing / float64(s.rate)))
	}
	return allowed, remaining, reset
}

// Len returns the number of tracked keys.
func (s *InMemoryTokenBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

func (s *InMemoryTokenBucketStore) cleanup(now time.Time) {
	if s.interval <= 0 || s.ttl <= 0 || now.Sub(s.lastScan) < s.interval {
		return
	}
	s.lastScan = now
	for key, b := range s.buckets {
		if now.Sub(b.lastSeen) > s.ttl {
			delete(s.buckets, key)
		}
	}
}

type windowCounter struct {
	start int64
	curr  int
	prev  int
}

// InMemoryStore is a [WindowStore] for a single process.
type InMemoryStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	now      func() time.Time
}

// NewInMemoryStore creates an empty window store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

// GetCounts implements [WindowStore].
func (s *InMemoryStore) GetCounts(_ context.Context, key string, window time.Duration) (int, int, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wc := s.roll(key, window)
	return wc.curr, wc.prev, wc.start, nil
}

// Incr implements [WindowStore].
func (s *InMemoryStore) Incr(_ context.Context, key string, window time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll(key, window).curr++
	return nil
}

// roll advances the counter of key to the window containing now.
func (s *InMemoryStore) roll(key string, window time.Duration) *windowCounter {
	size := max(1, int64(window/time.Second))
	now := s.now().Unix()
	start := now - now%size

	wc, ok := s.counters[key]
	if !ok {
		wc = &windowCounter{start: start}
		s.counters[key] = wc
		return wc
	}
	switch {
	case start == wc.start:
	case start-wc.start == size:
		wc.prev, wc.curr, wc.start = wc.curr, 0, start
	default:
		wc.prev, wc.curr, wc.start = 0, 0, start
	}
	return wc
}
