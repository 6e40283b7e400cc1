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

package recovery

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"

	"rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/telemetry/semconv"
)

// ErrPanic is the error reported to clients when a handler panics.
var ErrPanic = errors.New(http.StatusInternalServerError, 500900, "Internal server error")

// Option configures the recovery middleware.
type Option func(*config)

type config struct {
	stackTrace  bool
	stackSize   int
	logger      *slog.Logger
	useRouter   bool
	handler     func(c *router.Context, err any)
	prettyStack *bool
}

func defaultConfig() *config {
	return &config{
		stackTrace: true,
		stackSize:  4 << 10,
		useRouter:  true,
		handler:    defaultHandler,
	}
}

func defaultHandler(c *router.Context, _ any) {
	c.WriteError(ErrPanic)
}

// New returns an entry that recovers panics raised further down the chain.
//
// Example:
//
//	r.Use(recovery.New(
//	    recovery.WithStackSize(8 << 10),
//	    recovery.WithHandler(func(c *router.Context, err any) {
//	        c.String(http.StatusServiceUnavailable, "try again")
//	    }),
//	))
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	pretty := isTerminal()
	if cfg.prettyStack != nil {
		pretty = *cfg.prettyStack
	}

	return func(c *router.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			markSpan(c, rec)

			var stack []byte
			if cfg.stackTrace {
				stack = debug.Stack()
				if len(stack) > cfg.stackSize {
					stack = stack[:cfg.stackSize]
				}
			}
			cfg.log(c, rec, stack, pretty)

			if rw, ok := c.Response.(interface{ Written() bool }); !ok || !rw.Written() {
				cfg.handler(c, rec)
			}
			c.Abort()
		}()

		c.Next()
	}
}

func (cfg *config) log(c *router.Context, rec any, stack []byte, pretty bool) {
	var logger *slog.Logger
	switch {
	case cfg.logger != nil:
		logger = cfg.logger.With(
			slog.String(semconv.Method, c.Request.Method),
			slog.String(semconv.Path, c.Request.URL.Path),
		)
	case cfg.useRouter:
		logger = c.Logger()
	default:
		return
	}
	logger = logging.ContextLogger(c.Request.Context(), logger)

	attrs := []any{slog.Any(semconv.Panic, rec)}
	if route := c.Route(); route != nil {
		attrs = append(attrs, slog.String(semconv.Route, route.Path()))
	}
	if len(stack) > 0 && !pretty {
		attrs = append(attrs, slog.String(semconv.Stack, string(stack)))
	}
	logger.ErrorContext(c.Request.Context(), "panic recovered", attrs...)

	if len(stack) > 0 && pretty {
		fmt.Fprintf(os.Stderr, "panic: %v\n\n%s\n", rec, stack)
	}
}

func markSpan(c *router.Context, rec any) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	span.SetStatus(codes.Error, "panic recovered")
	span.SetAttributes(
		attribute.Bool("exception.escaped", true),
		attribute.String("exception.type", fmt.Sprintf("%T", rec)),
		attribute.String("exception.message", fmt.Sprintf("%v", rec)),
	)
	if err, ok := rec.(error); ok {
		span.RecordError(err)
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
