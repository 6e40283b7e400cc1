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
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"rivaas.dev/dispatch/cors"
	"rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/validation"
)

// Option configures a [Router].
type Option func(*Router)

// WithPrefix sets the prefix relative paths are resolved against.
// Default: "/".
func WithPrefix(prefix string) Option {
	return func(r *Router) {
		r.Prefix(prefix)
	}
}

// WithMethods sets the method set used by Use, Param and Any when a
// registration names none. Methods are upper-cased.
//
// Default: HEAD, OPTIONS, GET, PUT, PATCH, POST, DELETE.
func WithMethods(methods ...string) Option {
	return func(r *Router) {
		r.methods = normalizeMethods(methods)
	}
}

// WithBody sets the body decoding options of POST, PUT and PATCH routes.
//
// Example:
//
//	r := router.MustNew(router.WithBody(router.BodyOptions{
//	    Config: body.Config{JSONLimit: 1 << 20},
//	}))
func WithBody(opts BodyOptions) Option {
	return func(r *Router) {
		r.body = opts
	}
}

// WithCORS enables CORS for every route defined through the verb
// shortcuts, Any and Upload. Routes can opt out with [WithoutRouteCORS].
//
// Example:
//
//	r := router.MustNew(router.WithCORS(cors.New(
//	    cors.WithAllowedOrigins("https://app.example.com"),
//	)))
func WithCORS(policy cors.Policy) Option {
	return func(r *Router) {
		r.cors = &policy
	}
}

// WithoutCORS disables the router-wide CORS policy.
func WithoutCORS() Option {
	return func(r *Router) {
		r.cors = nil
	}
}

// WithUpload sets the default options of upload routes.
//
// Example:
//
//	r := router.MustNew(router.WithUpload(router.UploadOptions{
//	    Config: upload.Config{Root: "/var/uploads", AllowedFileExts: []string{".png"}},
//	}))
func WithUpload(opts UploadOptions) Option {
	return func(r *Router) {
		r.upload = opts
	}
}

// WithStatic sets the default options of static routes.
func WithStatic(opts StaticOptions) Option {
	return func(r *Router) {
		r.static = opts
	}
}

// WithRender sets the default options of render routes.
func WithRender(opts RenderOptions) Option {
	return func(r *Router) {
		r.render = opts
	}
}

// WithValidator configures the validation of annotated routes.
// A nil Validator selects one built with the package defaults.
//
// Example:
//
//	r := router.MustNew(router.WithValidator(router.ValidatorOptions{
//	    Validator: validation.MustNew(validation.WithMaxErrors(10)),
//	}))
func WithValidator(opts ValidatorOptions) Option {
	return func(r *Router) {
		r.validator = &opts
	}
}

// WithoutValidator disables validation on every route.
// Annotations are still reported to the documentation sink.
func WithoutValidator() Option {
	return func(r *Router) {
		r.validator = nil
	}
}

// WithLogger sets the logger used by the router and request contexts.
// Default: a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFormatter sets how stage failures are written.
// Default: [errors.Simple], which writes {"code": ..., "message": ...}.
//
// Example:
//
//	r := router.MustNew(router.WithFormatter(errors.NewRFC9457("https://api.example.com/problems")))
func WithFormatter(f errors.Formatter) Option {
	return func(r *Router) {
		if f != nil {
			r.formatter = f
		}
	}
}

// WithDocs sets the sink annotated routes are reported to.
// Default: a [Catalog].
func WithDocs(sink DocSink) Option {
	return func(r *Router) {
		if sink != nil {
			r.docs = sink
		}
	}
}

// WithObservability sets the recorder notified around every request.
//
// Example:
//
//	r := router.MustNew(router.WithObservability(metrics.MustNew()))
func WithObservability(recorder ObservabilityRecorder) Option {
	return func(r *Router) {
		r.observability = recorder
	}
}

// WithDiagnostics sets a diagnostic handler for the router.
//
// Diagnostic events are optional informational events that may indicate
// configuration issues or security concerns.
// The router functions correctly whether diagnostics are collected or not.
//
// Example with logging:
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	r := router.MustNew(router.WithDiagnostics(handler))
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(r *Router) {
		r.diagnostics = handler
	}
}

// WithH2C enables HTTP/2 Cleartext support.
//
// Only use in development or behind a trusted load balancer.
//
// Example:
//
//	r := router.MustNew(router.WithH2C(true))
//	r.Serve(":8080")
func WithH2C(enable bool) Option {
	return func(r *Router) {
		r.enableH2C = enable
	}
}

// WithHandlerWrapper wraps the router in the handler served by [Router.Serve]
// and [Router.ServeTLS], for stages that must run before routing. Wrappers
// apply in order, the first one ending up outermost.
//
// Example:
//
//	r := router.MustNew(router.WithHandlerWrapper(
//	    func(h http.Handler) http.Handler { return trailingslash.Wrap(h) },
//	))
func WithHandlerWrapper(wrappers ...func(http.Handler) http.Handler) Option {
	return func(r *Router) {
		r.wrappers = append(r.wrappers, wrappers...)
	}
}

// WithServerTimeouts configures HTTP server timeouts.
//
// Defaults (if not set):
//
//	ReadHeaderTimeout: 5s  - Time to read request headers
//	ReadTimeout:       15s - Time to read entire request
//	WriteTimeout:      30s - Time to write response
//	IdleTimeout:       60s - Keep-alive idle time
func WithServerTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(r *Router) {
		r.serverTimeouts = &serverTimeouts{
			readHeader: readHeader,
			read:       read,
			write:      write,
			idle:       idle,
		}
	}
}

// defaultServerTimeouts returns default timeout configuration.
func defaultServerTimeouts() *serverTimeouts {
	return &serverTimeouts{
		readHeader: 5 * time.Second,
		read:       15 * time.Second,
		write:      30 * time.Second,
		idle:       60 * time.Second,
	}
}

// ValidatorOptions configures the validation stage.
type ValidatorOptions struct {
	Validator *validation.Validator

	// OnError replaces the default 400 response.
	OnError ErrorHandler
}

// normalizeMethods upper-cases methods and drops blanks and duplicates.
func normalizeMethods(methods []string) []string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" || slices.Contains(out, m) {
			continue
		}
		out = append(out, m)
	}
	return out
}
