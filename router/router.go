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

package router

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rivaas.dev/dispatch/body"
	"rivaas.dev/dispatch/cors"
	"rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/validation"
)

// DefaultMethods is the method set used by Use and Any when none is given.
var DefaultMethods = []string{
	http.MethodHead,
	http.MethodOptions,
	http.MethodGet,
	http.MethodPut,
	http.MethodPatch,
	http.MethodPost,
	http.MethodDelete,
}

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
	written    bool
}

// WriteHeader captures the status code and prevents duplicate calls.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.ResponseWriter.WriteHeader(code)
		rw.written = true
	}
}

// Write captures the response size and marks as written.
func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.written = true
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// StatusCode returns the HTTP status code.
func (rw *responseWriter) StatusCode() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

// Size returns the response size in bytes.
func (rw *responseWriter) Size() int64 {
	return rw.size
}

// Written returns true if headers have been written.
func (rw *responseWriter) Written() bool {
	return rw.written
}

var _ ResponseInfo = (*responseWriter)(nil)

// Hijack implements http.Hijacker interface.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, ErrResponseWriterNotHijacker
}

// Flush implements http.Flusher interface.
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap returns the underlying writer for http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Router owns one registry of entries and terminal routes and dispatches
// requests through them.
//
// Registration is single-threaded and happens before the router is
// activated. Activation (explicit through [Router.Activate] or implicit on
// the first request) runs the before-start hooks, compiles validators and
// freezes the registry; from then on the router is safe for concurrent use
// and dispatch reads the registry without locking.
//
// Example:
//
//	r := router.MustNew(router.WithPrefix("/api"))
//	r.Use(requestid.New())
//	r.GET("users/:id", func(c *router.Context) {
//	    c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
//	})
//	http.ListenAndServe(":8080", r)
type Router struct {
	prefix  string
	methods []string

	body      BodyOptions
	decoder   *body.Decoder // built from body
	cors      *cors.Policy  // nil disables CORS unless a route enables it
	upload    UploadOptions
	static    StaticOptions
	render    RenderOptions
	validator *ValidatorOptions // nil disables validation

	logger        *slog.Logger
	formatter     errors.Formatter
	docs          DocSink
	observability ObservabilityRecorder
	diagnostics   DiagnosticHandler

	serverTimeouts *serverTimeouts
	enableH2C      bool
	wrappers       []func(http.Handler) http.Handler
	serverMu       sync.Mutex
	server         *http.Server

	entries []*Entry
	routes  []*Route
	hooks   []Hook

	activateOnce sync.Once
	activateErr  error
	frozen       atomic.Bool
}

// serverTimeouts holds HTTP server timeout configuration.
type serverTimeouts struct {
	readHeader, read, write, idle time.Duration
}

// New creates a router with the given options.
//
// Example:
//
//	r, err := router.New(
//	    router.WithPrefix("/api"),
//	    router.WithCORS(cors.DefaultPolicy()),
//	)
func New(opts ...Option) (*Router, error) {
	r := &Router{
		prefix:    "/",
		methods:   slices.Clone(DefaultMethods),
		logger:    slog.New(slog.DiscardHandler),
		formatter: errors.NewSimple(),
		docs:      NewCatalog(),
		validator: &ValidatorOptions{},
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("router configuration validation failed: %w", err)
	}

	decoder, err := body.New(r.body.Config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBodyConfig, err)
	}
	r.decoder = decoder

	if r.validator != nil && r.validator.Validator == nil {
		v, err := validation.New()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidatorCompile, err)
		}
		r.validator.Validator = v
	}

	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("router.MustNew: %v", err))
	}
	return r
}

func (r *Router) validate() error {
	if len(r.methods) == 0 {
		return ErrNoMethods
	}
	if r.serverTimeouts != nil {
		for _, d := range []time.Duration{r.serverTimeouts.readHeader, r.serverTimeouts.read, r.serverTimeouts.write, r.serverTimeouts.idle} {
			if d <= 0 {
				return ErrServerTimeoutInvalid
			}
		}
	}
	return nil
}

// Routes returns the terminal routes in registration order.
func (r *Router) Routes() []*Route {
	return slices.Clone(r.routes)
}

// Entries returns the entries in registration order.
func (r *Router) Entries() []*Entry {
	return slices.Clone(r.entries)
}

// Docs returns the documentation sink annotated routes are reported to.
func (r *Router) Docs() DocSink {
	return r.docs
}

// Logger returns the router logger.
func (r *Router) Logger() *slog.Logger {
	return r.logger
}

// CurrentPrefix returns the prefix relative paths are resolved against.
func (r *Router) CurrentPrefix() string {
	return r.prefix
}

// Prefix resolves p against the current prefix and makes it current for
// the registrations that follow.
//
// Example:
//
//	r.Prefix("/api").GET("users", list) // GET /api/users
//	r.Prefix("./v2").GET("users", list) // GET /api/v2/users
func (r *Router) Prefix(p string) *Router {
	r.prefix = strings.TrimSuffix(r.resolvePath(p), "/")
	if r.prefix == "" {
		r.prefix = "/"
	}
	return r
}

// resolvePath resolves p against the current prefix. A leading "./" is
// relative to the prefix, a leading "/" is absolute and any other path is
// appended to the prefix.
func (r *Router) resolvePath(p string) string {
	p = strings.TrimPrefix(p, "./")
	if strings.HasPrefix(p, "/") {
		return p
	}
	return strings.TrimSuffix(r.prefix, "/") + "/" + p
}

func (r *Router) emit(kind DiagnosticKind, message string, fields map[string]any) {
	if r.diagnostics != nil {
		r.diagnostics.OnDiagnostic(DiagnosticEvent{Kind: kind, Message: message, Fields: fields})
	}
}
