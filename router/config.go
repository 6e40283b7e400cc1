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
	"regexp"

	"rivaas.dev/dispatch/cors"
)

// RouteConfig is the explicit form of one registration.
// The verb shortcuts build a RouteConfig from their arguments and the
// [RouteOption] values given to [Router.With].
type RouteConfig struct {
	// Methods is the method set. Verb shortcuts set it themselves; Use,
	// Any and Upload fall back to it before the router defaults.
	Methods []string

	// Path is a path template resolved against the prefix. Empty matches
	// every path.
	Path string

	// Pattern is a raw expression used instead of Path.
	Pattern *regexp.Regexp

	Handlers []HandlerFunc

	// Name defaults to the resolved path.
	Name        string
	Description string
	Type        RouteType

	// Values is the user part of the route options bag.
	Values map[string]any

	Annotations *Annotations

	// CORS overrides the router policy; DisableCORS turns CORS off for
	// the route and wins over both.
	CORS        *cors.Policy
	DisableCORS bool

	Body   *BodyOptions
	Upload *UploadOptions
	Static *StaticOptions
	Render *RenderOptions

	// DisableValidator drops the validation stage of an annotated route.
	DisableValidator bool
}

// RouteOption adjusts a [RouteConfig].
type RouteOption func(*RouteConfig)

// WithName sets the route name.
func WithName(name string) RouteOption {
	return func(cfg *RouteConfig) { cfg.Name = name }
}

// WithDescription sets the route description.
func WithDescription(description string) RouteOption {
	return func(cfg *RouteConfig) { cfg.Description = description }
}

// WithRouteMethods sets the method set of Use, Any and Upload registrations.
func WithRouteMethods(methods ...string) RouteOption {
	return func(cfg *RouteConfig) { cfg.Methods = methods }
}

// WithRouteOptions merges values into the route options bag.
func WithRouteOptions(values map[string]any) RouteOption {
	return func(cfg *RouteConfig) {
		if cfg.Values == nil {
			cfg.Values = make(map[string]any, len(values))
		}
		maps.Copy(cfg.Values, values)
	}
}

// WithRouteValue sets one value of the route options bag.
func WithRouteValue(key string, value any) RouteOption {
	return WithRouteOptions(map[string]any{key: value})
}

// WithAnnotations documents the route and, when parameters are declared,
// validates requests against them.
func WithAnnotations(a Annotations) RouteOption {
	return func(cfg *RouteConfig) { cfg.Annotations = &a }
}

// WithRouteCORS enables CORS for the route with its own policy.
func WithRouteCORS(policy cors.Policy) RouteOption {
	return func(cfg *RouteConfig) { cfg.CORS = &policy }
}

// WithoutRouteCORS disables CORS for the route.
func WithoutRouteCORS() RouteOption {
	return func(cfg *RouteConfig) { cfg.DisableCORS = true }
}

// WithRouteBody replaces the router body options for the route.
func WithRouteBody(opts BodyOptions) RouteOption {
	return func(cfg *RouteConfig) { cfg.Body = &opts }
}

// WithRouteUpload replaces the router upload options for the route.
func WithRouteUpload(opts UploadOptions) RouteOption {
	return func(cfg *RouteConfig) { cfg.Upload = &opts }
}

// WithRouteStatic replaces the router static options for the route.
func WithRouteStatic(opts StaticOptions) RouteOption {
	return func(cfg *RouteConfig) { cfg.Static = &opts }
}

// WithRouteRender replaces the router render options for the route.
func WithRouteRender(opts RenderOptions) RouteOption {
	return func(cfg *RouteConfig) { cfg.Render = &opts }
}

// WithoutRouteValidator drops the validation stage of the route.
func WithoutRouteValidator() RouteOption {
	return func(cfg *RouteConfig) { cfg.DisableValidator = true }
}
