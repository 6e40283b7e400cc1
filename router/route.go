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
	"maps"
	"slices"

	"rivaas.dev/dispatch/router/compiler"
)

// RouteType tags how a terminal route was registered.
type RouteType string

// Route types.
const (
	TypeDefine RouteType = "define" // verb shortcuts, Any, Redirect
	TypeUpload RouteType = "upload"
	TypeStatic RouteType = "static"
	TypeRender RouteType = "render"
	TypeHeader RouteType = "header" // HEAD routes and synthesized HEAD companions
	TypeOption RouteType = "option" // OPTIONS routes and CORS preflight companions
)

// RouteOptions is the options bag of a terminal route. Every request
// dispatched to the route sees the same value through [Context.RouteOptions].
type RouteOptions struct {
	Name   string
	Type   RouteType
	Params []string       // parameter names declared by the path
	Values map[string]any // user values from [WithRouteOptions]
}

// Get returns a user value.
func (o RouteOptions) Get(key string) (any, bool) {
	v, ok := o.Values[key]
	return v, ok
}

// HasParam reports whether the route path declares the named parameter.
func (o RouteOptions) HasParam(name string) bool {
	return slices.Contains(o.Params, name)
}

// Route is a terminal handler chain.
// A Route is immutable once the router is activated.
type Route struct {
	name        string
	description string
	typ         RouteType
	methods     []string
	path        string
	matcher     *compiler.Matcher
	handlers    []HandlerFunc
	options     RouteOptions
	annotations *Annotations

	// validate is compiled at activation for routes carrying a validation stage.
	validate *validateStage
}

// Name returns the route name; it defaults to the path.
func (rt *Route) Name() string { return rt.name }

// Description returns the human readable description.
func (rt *Route) Description() string { return rt.description }

// Type returns the registration type.
func (rt *Route) Type() RouteType { return rt.typ }

// Methods returns a copy of the method set.
func (rt *Route) Methods() []string { return slices.Clone(rt.methods) }

// Path returns the resolved path template or raw pattern.
func (rt *Route) Path() string { return rt.path }

// Options returns the route options bag.
func (rt *Route) Options() RouteOptions { return rt.options }

// Annotations returns the documentation annotations, or nil.
func (rt *Route) Annotations() *Annotations { return rt.annotations }

// Len returns the number of stages in the handler chain, including the
// stages added by the router.
func (rt *Route) Len() int { return len(rt.handlers) }

// HasMethod reports whether the route answers method.
func (rt *Route) HasMethod(method string) bool {
	return slices.Contains(rt.methods, method)
}

// Match reports whether the route accepts method and path and returns the captures.
func (rt *Route) Match(method, path string) (compiler.Params, bool) {
	if !rt.HasMethod(method) {
		return nil, false
	}
	return rt.matcher.Match(path)
}

// Entry is a cross-cutting handler chain run ahead of a terminal route.
type Entry struct {
	methods  []string
	path     string
	matcher  *compiler.Matcher // nil matches every path
	handlers []HandlerFunc
}

// Methods returns a copy of the method set.
func (e *Entry) Methods() []string { return slices.Clone(e.methods) }

// Path returns the path filter; empty when the entry matches every path.
func (e *Entry) Path() string { return e.path }

// Match reports whether the entry applies to method and path and returns the captures.
func (e *Entry) Match(method, path string) (compiler.Params, bool) {
	if !slices.Contains(e.methods, method) {
		return nil, false
	}
	if e.matcher == nil {
		return nil, true
	}
	return e.matcher.Match(path)
}

func newRouteOptions(name string, typ RouteType, m *compiler.Matcher, values map[string]any) RouteOptions {
	return RouteOptions{
		Name:   name,
		Type:   typ,
		Params: m.Keys(),
		Values: maps.Clone(values),
	}
}
