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
	"crypto/sha256"
	"encoding/binary"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/router/middleware/requestid"
	"rivaas.dev/dispatch/telemetry/semconv"
)

// New returns an entry logging each request after the rest of the chain
// has run. Without WithLogger it logs to the router logger.
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		path := c.Request.URL.Path
		if cfg.exclude.Match(path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status, size := http.StatusOK, int64(0)
		if info, ok := c.Response.(router.ResponseInfo); ok {
			status, size = info.StatusCode(), info.Size()
		}

		isError := status >= http.StatusBadRequest
		isSlow := cfg.slowThreshold > 0 && duration >= cfg.slowThreshold
		reqID := requestid.FromContext(c.Request.Context())
		if !isError && !isSlow {
			if cfg.errorsOnly || !sampleByHash(reqID, cfg.sampleRate) {
				return
			}
		}

		logger := cfg.logger
		if logger == nil {
			logger = c.Router().Logger()
		}
		logger = logging.ContextLogger(c.Request.Context(), logger)

		attrs := []slog.Attr{
			slog.String(semconv.Method, c.Request.Method),
			slog.String(semconv.Path, path),
			slog.Int(semconv.Status, status),
			slog.Int64(semconv.Duration, duration.Milliseconds()),
			slog.Int64(semconv.BytesSent, size),
			slog.String(semconv.ClientIP, clientIP(c.Request)),
			slog.String(semconv.UserAgent, c.Request.UserAgent()),
			slog.String(semconv.Proto, c.Request.Proto),
		}
		if route := c.Route(); route != nil {
			attrs = append(attrs, slog.String(semconv.Route, route.Path()))
		}
		if reqID != "" {
			attrs = append(attrs, slog.String(semconv.RequestID, reqID))
		}
		if isSlow {
			attrs = append(attrs, slog.Bool(semconv.Slow, true))
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case isError, isSlow:
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level, "access", attrs...)
	}
}

// clientIP prefers the first X-Forwarded-For hop, then the remote address.
func clientIP(req *http.Request) string {
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

// sampleByHash keeps the same decision for the same ID on every replica.
// Requests without an ID are always kept.
func sampleByHash(id string, rate float64) bool {
	if rate >= 1 || id == "" {
		return true
	}
	if rate <= 0 {
		return false
	}
	h := sha256.Sum256([]byte(id))
	return binary.BigEndian.Uint64(h[:8]) <= uint64(rate*float64(^uint64(0)))
}
