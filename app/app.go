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

package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"

	"rivaas.dev/dispatch/config"
	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/metrics"
	"rivaas.dev/dispatch/openapi"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/tracing"
)

// Errors returned by [New].
var (
	ErrNilSettings   = errors.New("app: settings are nil")
	ErrMetricsHandle = errors.New("app: metrics endpoint requires the prometheus provider")
	ErrDocsSource    = errors.New("app: the router doc sink does not list operations")
)

// App is a configured dispatch server.
type App struct {
	settings *config.Settings
	logger   *logging.Logger
	router   *router.Router
	metrics  *metrics.Recorder
	tracer   *tracing.Tracer
	docs     *openapi.Document
	hooks    hooks
	health   healthChecks

	addrMu    sync.Mutex
	addr      net.Addr
	ready     chan struct{}
	readyOnce sync.Once

	handler       http.Handler
	logOutput     io.Writer
	bannerOutput  io.Writer
	routerOptions []router.Option
}

// New builds an App from s. The middleware stack, the health endpoints and
// the metrics endpoint are registered before New returns.
func New(s *config.Settings, opts ...Option) (*App, error) {
	if s == nil {
		return nil, ErrNilSettings
	}
	a := &App{
		settings:     s,
		logOutput:    os.Stdout,
		bannerOutput: os.Stdout,
		health:       newHealthChecks(),
		ready:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if s.Server.HideBanner {
		a.bannerOutput = nil
	}

	logOpts, err := s.LoggingOptions()
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	a.logger, err = logging.New(append(logOpts, logging.WithOutput(a.logOutput))...)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	slogger := a.logger.Logger()

	if err = a.initObservability(slogger); err != nil {
		return nil, err
	}

	routerOpts := s.RouterOptions(slogger)
	if rec := a.recorders(); len(rec) > 0 {
		routerOpts = append(routerOpts, router.WithObservability(rec))
	}
	routerOpts = append(routerOpts, router.WithDiagnostics(router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
		slogger.Debug(e.Message, "kind", e.Kind, "fields", e.Fields)
	})))
	wrappers := handlerWrappers(s.Middleware)
	if len(wrappers) > 0 {
		routerOpts = append(routerOpts, router.WithHandlerWrapper(wrappers...))
	}
	routerOpts = append(routerOpts, a.routerOptions...)

	a.router, err = router.New(routerOpts...)
	if err != nil {
		return nil, err
	}
	a.handler = a.router
	for i := len(wrappers) - 1; i >= 0; i-- {
		a.handler = wrappers[i](a.handler)
	}

	if err = a.registerMiddleware(slogger); err != nil {
		return nil, err
	}
	if err = a.registerEndpoints(); err != nil {
		return nil, err
	}
	return a, nil
}

// MustNew is like New but panics on error.
func MustNew(s *config.Settings, opts ...Option) *App {
	a, err := New(s, opts...)
	if err != nil {
		panic(fmt.Sprintf("app.MustNew: %v", err))
	}
	return a
}

func (a *App) initObservability(logger *slog.Logger) error {
	s := a.settings
	var err error
	if s.Metrics.Enabled {
		if a.metrics, err = metrics.New(s.MetricsOptions(logger)...); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	if s.Tracing.Enabled {
		if a.tracer, err = tracing.New(s.TracingOptions(logger)...); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}
	return nil
}

func (a *App) recorders() router.RecorderChain {
	var chain router.RecorderChain
	if a.tracer != nil {
		chain = append(chain, a.tracer)
	}
	if a.metrics != nil {
		chain = append(chain, a.metrics)
	}
	return chain
}

// registerEndpoints mounts the static directory, the health endpoints and
// the metrics scrape endpoint.
func (a *App) registerEndpoints() error {
	s := a.settings
	if s.Static.Path != "" {
		a.router.Static(s.Static.Path)
	}
	if !s.Health.Disabled {
		a.registerHealth()
	}
	if s.Docs.Enabled {
		if err := a.registerDocs(); err != nil {
			return err
		}
	}
	if a.metrics == nil || a.metrics.Provider() != metrics.PrometheusProvider {
		return nil
	}
	h, err := a.metrics.Handler()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMetricsHandle, err)
	}
	a.router.GET(s.Metrics.Path, router.WrapHandler(h))
	return nil
}

// registerDocs serves the OpenAPI document of the annotated routes and,
// when a UI path is set, a Swagger UI page.
func (a *App) registerDocs() error {
	d := a.settings.Docs
	src, ok := a.router.Docs().(openapi.Source)
	if !ok {
		return ErrDocsSource
	}
	title := d.Title
	if title == "" {
		title = a.settings.Logging.ServiceName
	}
	opts := []openapi.Option{openapi.WithTitle(title, d.Version)}
	if d.Description != "" {
		opts = append(opts, openapi.WithDescription(d.Description))
	}
	for _, server := range d.Servers {
		opts = append(opts, openapi.WithServer(server, ""))
	}
	a.docs = openapi.New(src, opts...)

	a.router.GET(d.Path, router.WrapHandler(a.docs.Handler()))
	if base, ok := strings.CutSuffix(d.Path, ".json"); ok {
		a.router.GET(base+".yaml", router.WrapHandler(a.docs.YAMLHandler()))
	}
	if d.UIPath != "" {
		a.router.GET(d.UIPath, router.WrapHandler(a.docs.UIHandler(d.Path)))
	}
	return nil
}

// Router returns the router routes are added to.
func (a *App) Router() *router.Router { return a.router }

// Logger returns the process logger.
func (a *App) Logger() *slog.Logger { return a.logger.Logger() }

// Settings returns the settings the App was built from.
func (a *App) Settings() *config.Settings { return a.settings }

// Metrics returns the metrics recorder, or nil when metrics are disabled.
func (a *App) Metrics() *metrics.Recorder { return a.metrics }

// Docs returns the OpenAPI document, or nil when docs are disabled.
func (a *App) Docs() *openapi.Document { return a.docs }

// Tracer returns the tracer, or nil when tracing is disabled.
func (a *App) Tracer() *tracing.Tracer { return a.tracer }

// ServeHTTP dispatches through the handler wrappers and the router, as the
// running server does.
func (a *App) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	a.handler.ServeHTTP(w, req)
}
