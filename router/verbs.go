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
	"net/http"
	"regexp"
	"slices"
)

// Scope registers routes with a fixed set of route options.
//
// Example:
//
//	r.With(router.WithoutRouteCORS(), router.WithName("health")).
//	    GET("/health", health)
type Scope struct {
	router *Router
	opts   []RouteOption
}

// With returns a Scope whose registrations apply opts.
func (r *Router) With(opts ...RouteOption) *Scope {
	return &Scope{router: r, opts: opts}
}

// With returns a Scope with opts appended to the current options.
func (s *Scope) With(opts ...RouteOption) *Scope {
	return &Scope{router: s.router, opts: append(slices.Clone(s.opts), opts...)}
}

// Router returns the router the scope registers on.
func (s *Scope) Router() *Router {
	return s.router
}

func (s *Scope) config(path string, handlers []HandlerFunc) RouteConfig {
	cfg := RouteConfig{Path: path, Handlers: handlers}
	for _, opt := range s.opts {
		opt(&cfg)
	}
	return cfg
}

func (s *Scope) verb(method, path string, handlers []HandlerFunc) *Scope {
	cfg := s.config(path, handlers)
	cfg.Methods = []string{method}
	cfg.Type = TypeDefine
	s.router.must(s.router.Define(cfg))
	return s
}

// Use registers an entry for every path.
func (s *Scope) Use(handlers ...HandlerFunc) *Scope {
	return s.UseAt("", handlers...)
}

// UseAt registers an entry for the paths matching path.
func (s *Scope) UseAt(path string, handlers ...HandlerFunc) *Scope {
	s.router.must(s.router.AddEntry(s.config(path, handlers)))
	return s
}

// GET defines a GET route and its HEAD companion.
func (s *Scope) GET(path string, handlers ...HandlerFunc) *Scope {
	return s.verb(http.MethodGet, path, handlers)
}

// POST defines a POST route.
func (s *Scope) POST(path string, handlers ...HandlerFunc) *Scope {
	return s.verb(http.MethodPost, path, handlers)
}

// PUT defines a PUT route.
func (s *Scope) PUT(path string, handlers ...HandlerFunc) *Scope {
	return s.verb(http.MethodPut, path, handlers)
}

// PATCH defines a PATCH route.
func (s *Scope) PATCH(path string, handlers ...HandlerFunc) *Scope {
	return s.verb(http.MethodPatch, path, handlers)
}

// DELETE defines a DELETE route.
func (s *Scope) DELETE(path string, handlers ...HandlerFunc) *Scope {
	return s.verb(http.MethodDelete, path, handlers)
}

// HEAD registers a HEAD route without derived stages.
func (s *Scope) HEAD(path string, handlers ...HandlerFunc) *Scope {
	cfg := s.config(path, handlers)
	cfg.Methods = []string{http.MethodHead}
	cfg.Type = TypeHeader
	s.router.must(s.router.Register(cfg))
	return s
}

// OPTIONS registers an OPTIONS route without derived stages.
func (s *Scope) OPTIONS(path string, handlers ...HandlerFunc) *Scope {
	cfg := s.config(path, handlers)
	cfg.Methods = []string{http.MethodOptions}
	cfg.Type = TypeOption
	s.router.must(s.router.Register(cfg))
	return s
}

// Any defines a route for the scope methods, or the router method set.
func (s *Scope) Any(path string, handlers ...HandlerFunc) *Scope {
	cfg := s.config(path, handlers)
	if len(cfg.Methods) == 0 {
		cfg.Methods = s.router.methods
	}
	cfg.Type = TypeDefine
	s.router.must(s.router.Define(cfg))
	return s
}

// Match is Any for a raw pattern matched against the whole path.
// Named groups become parameters.
func (s *Scope) Match(pattern *regexp.Regexp, handlers ...HandlerFunc) *Scope {
	return s.With(func(cfg *RouteConfig) { cfg.Pattern = pattern }).Any("", handlers...)
}

// Upload defines a multipart upload route. The upload stage runs before
// the handlers, which find the result on [Context.Upload].
func (s *Scope) Upload(path string, handlers ...HandlerFunc) *Scope {
	s.router.must(s.router.defineUpload(s.config(path, handlers)))
	return s
}

// Static serves the files below the static root for path + "/:filename*".
// The handlers run after a file was sent or when the name was filtered out.
func (s *Scope) Static(path string, handlers ...HandlerFunc) *Scope {
	s.router.must(s.router.defineStatic(s.config(path, handlers)))
	return s
}

// Render renders the configured template after the handlers ran; they can
// add template data with [Context.Set].
func (s *Scope) Render(path string, handlers ...HandlerFunc) *Scope {
	s.router.must(s.router.defineRender(s.config(path, handlers)))
	return s
}

// Use registers an entry for every path.
//
// Example:
//
//	r.Use(recovery.New(), requestid.New())
func (r *Router) Use(handlers ...HandlerFunc) *Router {
	r.With().Use(handlers...)
	return r
}

// UseAt registers an entry for the paths matching path.
func (r *Router) UseAt(path string, handlers ...HandlerFunc) *Router {
	r.With().UseAt(path, handlers...)
	return r
}

// Param registers an entry calling fn with the parameter value for every
// request whose terminal route declares the parameter.
//
// Example:
//
//	r.Param("id", func(id string, c *router.Context) {
//	    if _, err := strconv.Atoi(id); err != nil {
//	        c.String(http.StatusBadRequest, "bad id")
//	        c.Abort()
//	    }
//	})
func (r *Router) Param(name string, fn ParamFunc) *Router {
	return r.ParamAt("", name, fn)
}

// ParamAt is Param restricted to the paths matching path.
func (r *Router) ParamAt(path, name string, fn ParamFunc) *Router {
	if fn == nil {
		r.must(ErrNilHandler)
	}
	return r.UseAt(path, func(c *Context) {
		if c.RouteOptions().HasParam(name) {
			fn(c.Param(name), c)
		}
	})
}

// GET defines a GET route and its HEAD companion.
func (r *Router) GET(path string, handlers ...HandlerFunc) *Router {
	r.With().GET(path, handlers...)
	return r
}

// POST defines a POST route.
func (r *Router) POST(path string, handlers ...HandlerFunc) *Router {
	r.With().POST(path, handlers...)
	return r
}

// PUT defines a PUT route.
func (r *Router) PUT(path string, handlers ...HandlerFunc) *Router {
	r.With().PUT(path, handlers...)
	return r
}

// PATCH defines a PATCH route.
func (r *Router) PATCH(path string, handlers ...HandlerFunc) *Router {
	r.With().PATCH(path, handlers...)
	return r
}

// DELETE defines a DELETE route.
func (r *Router) DELETE(path string, handlers ...HandlerFunc) *Router {
	r.With().DELETE(path, handlers...)
	return r
}

// HEAD registers a HEAD route.
func (r *Router) HEAD(path string, handlers ...HandlerFunc) *Router {
	r.With().HEAD(path, handlers...)
	return r
}

// OPTIONS registers an OPTIONS route.
func (r *Router) OPTIONS(path string, handlers ...HandlerFunc) *Router {
	r.With().OPTIONS(path, handlers...)
	return r
}

// Any defines a route for the router method set.
func (r *Router) Any(path string, handlers ...HandlerFunc) *Router {
	r.With().Any(path, handlers...)
	return r
}

// Match defines a route for the router method set on a raw pattern.
func (r *Router) Match(pattern *regexp.Regexp, handlers ...HandlerFunc) *Router {
	r.With().Match(pattern, handlers...)
	return r
}

// Upload defines a POST multipart upload route.
func (r *Router) Upload(path string, handlers ...HandlerFunc) *Router {
	r.With().Upload(path, handlers...)
	return r
}

// Static serves files below the static root.
func (r *Router) Static(path string, handlers ...HandlerFunc) *Router {
	r.With().Static(path, handlers...)
	return r
}

// Render renders the configured template.
func (r *Router) Render(path string, handlers ...HandlerFunc) *Router {
	r.With().Render(path, handlers...)
	return r
}

// Redirect answers every method on source with a redirect to target.
// Both paths are resolved against the prefix; a zero code means 301.
func (r *Router) Redirect(source, target string, code int) *Router {
	target = r.resolvePath(target)
	if code == 0 {
		code = http.StatusMovedPermanently
	}
	return r.Any(source, func(c *Context) {
		c.Redirect(code, target)
	})
}
