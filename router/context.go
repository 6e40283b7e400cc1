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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/upload"
	"rivaas.dev/dispatch/validation"
)

// HandlerFunc is one stage of a handler chain.
type HandlerFunc func(*Context)

// ErrorHandler replaces the default failure response of a router stage.
// It runs inside the failing stage; the chain is aborted when it returns
// unless it calls [Context.Next] itself.
type ErrorHandler func(c *Context, err error)

// ParamFunc is called by [Router.Param] stages with the parameter value.
type ParamFunc func(value string, c *Context)

// Context carries the state of one request through its handler chain.
// A Context is owned by a single request and must not be retained after
// the chain returns.
type Context struct {
	Request  *http.Request
	Response http.ResponseWriter

	router   *Router
	route    *Route
	handlers []HandlerFunc
	index    int32
	aborted  bool

	params    map[string]string
	body      any
	form      url.Values
	rawBody   []byte
	upload    *upload.Result
	validated *validation.Output
	data      map[string]any
	logger    *slog.Logger

	// escalated is returned from Dispatch.
	escalated error
}

func newContext(r *Router, w http.ResponseWriter, req *http.Request, route *Route, handlers []HandlerFunc) *Context {
	return &Context{
		Request:  req,
		Response: w,
		router:   r,
		route:    route,
		handlers: handlers,
		index:    -1,
		params:   map[string]string{},
	}
}

// Next executes the next handler in the chain.
// Handlers that return without calling Next let the chain continue;
// use [Context.Abort] to stop it.
//
// Example middleware usage:
//
//	r.Use(func(c *router.Context) {
//	    if c.Request.Header.Get("Authorization") == "" {
//	        c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
//	        c.Abort()
//	        return
//	    }
//	    c.Next()
//	})
func (c *Context) Next() {
	c.index++
	for c.index < int32(len(c.handlers)) {
		if c.aborted {
			return
		}
		if err := c.Request.Context().Err(); err != nil {
			return
		}
		c.handlers[c.index](c)
		c.index++
	}
}

// Abort stops the chain; handlers after the current one are skipped.
func (c *Context) Abort() {
	c.aborted = true
}

// IsAborted reports whether the chain was aborted.
func (c *Context) IsAborted() bool {
	return c.aborted
}

// Param returns a path parameter of the terminal route or of a matching entry.
func (c *Context) Param(key string) string {
	return c.params[key]
}

// Params returns the merged path parameters.
func (c *Context) Params() map[string]string {
	return c.params
}

// Query returns the value of the URL query parameter by key.
func (c *Context) Query(key string) string {
	return c.Request.URL.Query().Get(key)
}

// Body returns the decoded request body: a map or slice for JSON and YAML,
// a map of strings (or string slices) for forms, the non-file fields of an
// upload, or nil when nothing was decoded.
func (c *Context) Body() any {
	return c.body
}

// Form returns the raw values of a form-encoded body, or nil.
func (c *Context) Form() url.Values {
	return c.form
}

// RawBody returns the body bytes after charset conversion, or nil.
func (c *Context) RawBody() []byte {
	return c.rawBody
}

// Upload returns the result of the upload stage, or nil.
func (c *Context) Upload() *upload.Result {
	return c.upload
}

// Validated returns the coerced inputs of the validation stage, or nil.
func (c *Context) Validated() *validation.Output {
	return c.validated
}

// Data returns the per-request data map merged into render templates.
func (c *Context) Data() map[string]any {
	if c.data == nil {
		c.data = make(map[string]any)
	}
	return c.data
}

// Set stores a value in [Context.Data].
func (c *Context) Set(key string, value any) {
	c.Data()[key] = value
}

// Get returns a value stored with [Context.Set].
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

// Route returns the terminal route, also while entry stages run.
func (c *Context) Route() *Route {
	return c.route
}

// Router returns the router dispatching the request.
func (c *Context) Router() *Router {
	return c.router
}

// RouteOptions returns the options bag of the terminal route.
func (c *Context) RouteOptions() RouteOptions {
	if c.route == nil {
		return RouteOptions{}
	}
	return c.route.options
}

// Logger returns the router logger with the request method and path attached.
func (c *Context) Logger() *slog.Logger {
	if c.logger == nil {
		c.logger = c.router.logger.With(
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)
	}
	return c.logger
}

// JSON encodes obj and writes it with the given status.
// Nothing is written when encoding fails.
func (c *Context) JSON(code int, obj any) error {
	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(obj); err != nil {
		return fmt.Errorf("JSON encoding failed for type %T: %w", obj, err)
	}
	if c.Response == nil {
		return ErrContextResponseNil
	}
	c.Response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.Status(code)
	_, err := c.Response.Write([]byte(buf.String()))
	return err
}

// String writes a plain text response.
func (c *Context) String(code int, value string) error {
	c.Response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.Status(code)
	_, err := c.Response.Write([]byte(value))
	return err
}

// HTML writes an HTML response.
func (c *Context) HTML(code int, html string) error {
	c.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Status(code)
	_, err := c.Response.Write([]byte(html))
	return err
}

// Status writes the status code unless headers were already sent.
func (c *Context) Status(code int) {
	if rw, ok := c.Response.(*responseWriter); ok && rw.Written() {
		return
	}
	c.Response.WriteHeader(code)
}

// Header sets a response header. CR and LF are stripped from the value
// and the attempt is reported as a diagnostic.
func (c *Context) Header(key, value string) {
	if strings.ContainsAny(value, "\r\n") {
		c.router.emit(DiagHeaderInjection, "header injection attempt blocked and sanitized", map[string]any{
			"key":  key,
			"path": c.Request.URL.Path,
		})
		value = strings.ReplaceAll(value, "\r", "")
		value = strings.ReplaceAll(value, "\n", "")
	}
	c.Response.Header().Set(key, value)
}

// Redirect answers with a Location header and the given status.
func (c *Context) Redirect(code int, location string) {
	c.Header("Location", location)
	c.Status(code)
}

// NoContent sends a 204 No Content response.
func (c *Context) NoContent() {
	c.Status(http.StatusNoContent)
}

// WriteError writes err with the router's error formatter and aborts the chain.
func (c *Context) WriteError(err error) {
	if werr := errors.Write(c.Response, c.Request, c.router.formatter, err); werr != nil {
		c.Logger().Debug("failed to write error response", slog.Any("error", werr))
	}
	c.Abort()
}

// fail reports a stage failure through onError, or the default response.
func (c *Context) fail(err error, onError ErrorHandler) {
	if onError != nil {
		onError(c, err)
		c.Abort()
		return
	}
	c.WriteError(err)
}

// Escalate aborts the chain and makes [Router.Dispatch] return err instead
// of writing a response; ServeHTTP logs it and answers 500. Files stored by
// an upload stage earlier in the chain are removed.
func (c *Context) Escalate(err error) {
	c.escalated = err
	c.Abort()
}

// WrapHandler adapts an http.Handler to a stage. The chain continues after
// h returns.
//
// Example:
//
//	r.GET("/metrics", router.WrapHandler(promhttp.Handler()))
func WrapHandler(h http.Handler) HandlerFunc {
	return func(c *Context) {
		h.ServeHTTP(c.Response, c.Request)
	}
}
