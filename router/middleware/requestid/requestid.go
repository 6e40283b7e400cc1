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

// Package requestid assigns every request an identifier, echoes it in a
// response header and makes it available to handlers and loggers.
package requestid

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/telemetry/semconv"
)

// DefaultHeader carries the request ID in both directions.
const DefaultHeader = "X-Request-ID"

// maxClientIDLength bounds identifiers accepted from clients.
const maxClientIDLength = 128

type contextKey struct{}

// Option configures the requestid middleware.
type Option func(*config)

type config struct {
	headerName    string
	generator     func() string
	allowClientID bool
	logger        *slog.Logger
}

func defaultConfig() *config {
	return &config{
		headerName:    DefaultHeader,
		generator:     generateUUIDv7,
		allowClientID: true,
	}
}

func generateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	ulidEntropy     = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyLock sync.Mutex
)

func generateULID() string {
	ulidEntropyLock.Lock()
	defer ulidEntropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// New returns an entry that reuses the client's request ID when allowed
// and valid, or generates a UUID v7.
//
// The ID is set on the response header, stored in the request context and,
// when WithLogger is given, attached as request_id to a logger stored with
// [logging.NewContext].
//
// Example:
//
//	r.Use(requestid.New(requestid.WithULID(), requestid.WithLogger(logger)))
//
//	r.GET("/orders/:id", func(c *router.Context) {
//	    logging.FromContext(c.Request.Context(), logger).Info("loading order")
//	})
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		var requestID string
		if cfg.allowClientID {
			requestID = c.Request.Header.Get(cfg.headerName)
			if !validClientID(requestID) {
				requestID = ""
			}
		}
		if requestID == "" {
			requestID = cfg.generator()
		}

		c.Response.Header().Set(cfg.headerName, requestID)
		c.Set(semconv.RequestID, requestID)

		ctx := context.WithValue(c.Request.Context(), contextKey{}, requestID)
		if cfg.logger != nil {
			ctx = logging.NewContext(ctx, cfg.logger.With(slog.String(semconv.RequestID, requestID)))
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// validClientID accepts printable ASCII up to maxClientIDLength bytes.
func validClientID(id string) bool {
	if id == "" || len(id) > maxClientIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// Get returns the request ID of c, or "".
func Get(c *router.Context) string {
	return FromContext(c.Request.Context())
}

// FromContext returns the request ID stored in ctx, or "".
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
