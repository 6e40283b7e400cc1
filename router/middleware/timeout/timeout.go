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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	dispatcherrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/telemetry/semconv"
)

// ErrTimeout is the default response when the deadline passes.
var ErrTimeout = dispatcherrors.New(http.StatusServiceUnavailable, 503900, "Request timeout")

// Option configures the timeout middleware.
type Option func(*config)

type config struct {
	duration     time.Duration
	logger       *slog.Logger
	handler      func(c *router.Context, timeout time.Duration)
	skipPaths    map[string]bool
	skipPrefixes []string
	skipSuffixes []string
	skipFunc     func(c *router.Context) bool
}

func defaultConfig() *config {
	return &config{
		duration:  30 * time.Second,
		handler:   defaultHandler,
		skipPaths: make(map[string]bool),
	}
}

func defaultHandler(c *router.Context, _ time.Duration) {
	c.WriteError(ErrTimeout)
}

func (cfg *config) skip(c *router.Context) bool {
	path := c.Request.URL.Path
	if cfg.skipPaths[path] {
		return true
	}
	for _, prefix := range cfg.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, suffix := range cfg.skipSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return cfg.skipFunc != nil && cfg.skipFunc(c)
}

// New returns an entry running the rest of the chain under a deadline.
// Without WithLogger, timeouts are logged to the router logger.
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		if cfg.duration <= 0 || cfg.skip(c) {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.duration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		underlying := c.Response
		// The handler goroutine owns c until done; the timeout response is
		// written on a snapshot taken before it starts.
		snapshot := *c
		snapshot.Response = underlying
		tw := &guardedWriter{ResponseWriter: underlying}
		c.Response = tw

		done := make(chan struct{})
		panicked := make(chan any, 1)
		go func() {
			defer close(done)
			defer func() {
				if p := recover(); p != nil {
					panicked <- p
				}
			}()
			c.Next()
		}()

		select {
		case <-done:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && tw.expire() {
				cfg.log(&snapshot)
				cfg.handler(&snapshot, cfg.duration)
			}
			<-done
		}

		c.Response = underlying
		select {
		case p := <-panicked:
			panic(p)
		default:
		}
		if tw.isExpired() {
			c.Abort()
		}
	}
}

func (cfg *config) log(c *router.Context) {
	logger := cfg.logger
	if logger == nil {
		logger = c.Router().Logger()
	}
	logger.Warn("request timeout",
		slog.String(semconv.Method, c.Request.Method),
		slog.String(semconv.Path, c.Request.URL.Path),
		slog.Duration("timeout", cfg.duration),
	)
}

// guardedWriter discards handler output once the deadline response owns
// the connection.
type guardedWriter struct {
	http.ResponseWriter
	mu      sync.Mutex
	started bool
	expired bool
}

// expire claims the response for the timeout handler. It reports false
// when the handlers already started writing.
func (w *guardedWriter) expire() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return false
	}
	w.expired = true
	return true
}

func (w *guardedWriter) isExpired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expired
}

func (w *guardedWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.expired {
		return
	}
	w.started = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *guardedWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.expired {
		return 0, http.ErrHandlerTimeout
	}
	w.started = true
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying writer, for http.ResponseController.
func (w *guardedWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
