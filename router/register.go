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
	"fmt"
	"net/http"
	"slices"
	"strings"

	"rivaas.dev/dispatch/cors"
	"rivaas.dev/dispatch/router/compiler"
	"rivaas.dev/dispatch/upload"
)

// documentedMethods are reported to the doc sink and may carry a validation stage.
var documentedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodPatch,
}

var (
	bodyMethods   = []string{http.MethodPost, http.MethodPut, http.MethodPatch}
	uploadMethods = bodyMethods
)

// Register appends a terminal route exactly as configured: no body, CORS,
// validation or HEAD stages are derived from it.
func (r *Router) Register(cfg RouteConfig) error {
	if cfg.Type == "" {
		cfg.Type = TypeDefine
	}
	m, err := r.prepare(&cfg)
	if err != nil {
		return err
	}
	r.addRoute(cfg, cfg.Type, m, cfg.Handlers)
	return nil
}

// Define registers a terminal route the way the verb shortcuts do.
//
// In order: annotations are reported to the doc sink and a validation
// stage is prepended when parameters are declared; POST, PUT and PATCH
// routes get a body decoding stage (upload routes instead get their upload
// stage moved to the front); when CORS is enabled an OPTIONS companion is
// registered and a CORS stage prepended; a GET route without HEAD gets a
// HEAD companion running only the given handlers; finally the route is
// registered.
func (r *Router) Define(cfg RouteConfig) error {
	if cfg.Type == "" {
		cfg.Type = TypeDefine
	}
	m, err := r.prepare(&cfg)
	if err != nil {
		return err
	}

	var decode HandlerFunc
	if cfg.Type != TypeUpload && hasAnyMethod(cfg.Methods, bodyMethods) {
		if decode, err = r.bodyStage(cfg.Body); err != nil {
			return err
		}
	}

	stack := slices.Clone(cfg.Handlers)

	var vs *validateStage
	if a := cfg.Annotations; a != nil {
		ann := *a
		if ann.OperationID == "" {
			ann.OperationID = routeName(cfg)
		}
		docPath := DocPath(cfg.Path)
		documented := false
		for _, method := range cfg.Methods {
			if !slices.Contains(documentedMethods, method) {
				continue
			}
			r.docs.Annotate(strings.ToLower(method), docPath, ann)
			documented = true
		}
		cfg.Annotations = &ann
		if documented && !ann.Parameters.Empty() && !cfg.DisableValidator && r.validator != nil {
			vs = &validateStage{
				method:  cfg.Methods[0],
				path:    docPath,
				params:  ann.Parameters,
				onError: r.validator.OnError,
			}
			stack = slices.Insert(stack, 0, vs.handle)
		}
	}

	if cfg.Type == TypeUpload {
		last := len(stack) - 1
		stack = append([]HandlerFunc{stack[last]}, stack[:last]...)
	} else if decode != nil {
		stack = slices.Insert(stack, 0, decode)
	}

	if policy := r.corsPolicy(cfg); policy != nil {
		stage := corsStage(*policy)
		preflight := cfg
		preflight.Methods = []string{http.MethodOptions}
		preflight.Annotations = nil
		r.addRoute(preflight, TypeOption, m, []HandlerFunc{stage})
		r.emit(DiagCompanionRoute, "CORS preflight route registered", map[string]any{
			"path": routePath(cfg),
		})
		stack = slices.Insert(stack, 0, stage)
	}

	if slices.Contains(cfg.Methods, http.MethodGet) && !slices.Contains(cfg.Methods, http.MethodHead) {
		head := cfg
		head.Methods = []string{http.MethodHead}
		head.Annotations = nil
		r.addRoute(head, TypeHeader, m, cfg.Handlers)
		r.emit(DiagCompanionRoute, "HEAD route registered", map[string]any{
			"path": routePath(cfg),
		})
	}

	rt := r.addRoute(cfg, cfg.Type, m, stack)
	rt.validate = vs
	return nil
}

// AddEntry registers cross-cutting handlers. An empty path matches every
// path. When the method set contains GET but not HEAD, HEAD is added; no
// companion entry is created.
func (r *Router) AddEntry(cfg RouteConfig) error {
	if r.frozen.Load() {
		return ErrFrozen
	}
	methods := cfg.Methods
	if len(methods) == 0 {
		methods = r.methods
	}
	methods = normalizeMethods(methods)
	if slices.Contains(methods, http.MethodGet) && !slices.Contains(methods, http.MethodHead) {
		methods = slices.Insert(methods, 0, http.MethodHead)
	}
	if err := checkHandlers(methods, cfg.Handlers); err != nil {
		return fmt.Errorf("entry %s: %w", cfg.Path, err)
	}

	e := &Entry{methods: methods, handlers: slices.Clone(cfg.Handlers)}
	switch {
	case cfg.Pattern != nil:
		e.path = cfg.Pattern.String()
		e.matcher = compiler.CompileRegexp(cfg.Pattern)
	case cfg.Path != "":
		e.path = r.resolvePath(cfg.Path)
		m, err := compiler.Compile(e.path)
		if err != nil {
			return fmt.Errorf("entry %s: %w: %w", e.path, ErrInvalidPath, err)
		}
		e.matcher = m
	}
	r.entries = append(r.entries, e)
	return nil
}

// prepare validates cfg, normalizes its methods, resolves its path and
// compiles the matcher.
func (r *Router) prepare(cfg *RouteConfig) (*compiler.Matcher, error) {
	if r.frozen.Load() {
		return nil, ErrFrozen
	}
	cfg.Methods = normalizeMethods(cfg.Methods)

	if cfg.Pattern != nil {
		cfg.Path = cfg.Pattern.String()
		if err := checkHandlers(cfg.Methods, cfg.Handlers); err != nil {
			return nil, fmt.Errorf("%s %s: %w", cfg.Methods, cfg.Path, err)
		}
		return compiler.CompileRegexp(cfg.Pattern), nil
	}

	if cfg.Path != "" {
		cfg.Path = r.resolvePath(cfg.Path)
	}
	if err := checkHandlers(cfg.Methods, cfg.Handlers); err != nil {
		return nil, fmt.Errorf("%s %s: %w", cfg.Methods, routePath(*cfg), err)
	}
	m, err := compiler.Compile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", cfg.Methods, cfg.Path, ErrInvalidPath, err)
	}
	return m, nil
}

func checkHandlers(methods []string, handlers []HandlerFunc) error {
	if len(methods) == 0 {
		return ErrNoMethods
	}
	if len(handlers) == 0 {
		return ErrNoHandlers
	}
	for _, h := range handlers {
		if h == nil {
			return ErrNilHandler
		}
	}
	return nil
}

func (r *Router) addRoute(cfg RouteConfig, typ RouteType, m *compiler.Matcher, handlers []HandlerFunc) *Route {
	name := routeName(cfg)
	description := cfg.Description
	if description == "" && cfg.Annotations != nil {
		description = cfg.Annotations.Description
	}
	rt := &Route{
		name:        name,
		description: description,
		typ:         typ,
		methods:     slices.Clone(cfg.Methods),
		path:        routePath(cfg),
		matcher:     m,
		handlers:    slices.Clone(handlers),
		options:     newRouteOptions(name, typ, m, cfg.Values),
		annotations: cfg.Annotations,
	}
	r.routes = append(r.routes, rt)
	r.emit(DiagRouteRegistered, "route registered", map[string]any{
		"methods": rt.methods,
		"path":    rt.path,
		"type":    string(typ),
	})
	return rt
}

func (r *Router) corsPolicy(cfg RouteConfig) *cors.Policy {
	switch {
	case cfg.DisableCORS:
		return nil
	case cfg.CORS != nil:
		return cfg.CORS
	default:
		return r.cors
	}
}

func routePath(cfg RouteConfig) string {
	if cfg.Path == "" {
		return compiler.MatchAll
	}
	return cfg.Path
}

func routeName(cfg RouteConfig) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return routePath(cfg)
}

func hasAnyMethod(methods, candidates []string) bool {
	for _, m := range methods {
		if slices.Contains(candidates, m) {
			return true
		}
	}
	return false
}

// defineUpload restricts the methods to POST, PUT and PATCH (POST when
// none remain), appends the upload stage and defines the route.
func (r *Router) defineUpload(cfg RouteConfig) error {
	methods := slices.DeleteFunc(normalizeMethods(cfg.Methods), func(m string) bool {
		return !slices.Contains(uploadMethods, m)
	})
	if len(methods) == 0 {
		methods = []string{http.MethodPost}
	}

	opts := r.upload
	if cfg.Upload != nil {
		opts = *cfg.Upload
	}
	u, err := upload.New(opts.Config)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUploadConfig, err)
	}

	cfg.Methods = methods
	cfg.Type = TypeUpload
	cfg.Handlers = append(slices.Clone(cfg.Handlers), uploadStage(u, opts.OnError))
	return r.Define(cfg)
}

// defineStatic registers a GET route serving files for the ":filename*"
// capture appended to the path, and its HEAD companion.
func (r *Router) defineStatic(cfg RouteConfig) error {
	opts := r.static
	if cfg.Static != nil {
		opts = *cfg.Static
	}
	stage, err := staticStage(opts)
	if err != nil {
		return err
	}

	cfg.Methods = []string{http.MethodGet}
	cfg.Type = TypeStatic
	if opts.Filename == "" && cfg.Pattern == nil {
		cfg.Path = strings.TrimSuffix(r.resolvePath(cfg.Path), "/") + "/:filename*"
	}
	cfg.Handlers = append([]HandlerFunc{stage}, cfg.Handlers...)
	return r.registerWithHead(cfg)
}

// defineRender registers a GET route ending with the render stage, and its
// HEAD companion.
func (r *Router) defineRender(cfg RouteConfig) error {
	opts := r.render
	if cfg.Render != nil {
		opts = *cfg.Render
	}
	stage, err := renderStage(opts)
	if err != nil {
		return err
	}

	cfg.Methods = []string{http.MethodGet}
	cfg.Type = TypeRender
	cfg.Handlers = append(slices.Clone(cfg.Handlers), stage)
	return r.registerWithHead(cfg)
}

func (r *Router) registerWithHead(cfg RouteConfig) error {
	m, err := r.prepare(&cfg)
	if err != nil {
		return err
	}
	head := cfg
	head.Methods = []string{http.MethodHead}
	r.addRoute(head, TypeHeader, m, cfg.Handlers)
	r.addRoute(cfg, cfg.Type, m, cfg.Handlers)
	return nil
}

// must panics on registration errors.
func (r *Router) must(err error) {
	if err != nil {
		panic(fmt.Errorf("router: %w", err))
	}
}
