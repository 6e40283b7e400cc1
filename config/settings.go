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

package config

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rivaas.dev/dispatch/body"
	"rivaas.dev/dispatch/cors"
	dispatcherrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/metrics"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/tracing"
	"rivaas.dev/dispatch/upload"
	"rivaas.dev/dispatch/validation"
)

// Settings is the configuration document of a dispatch server.
//
//	server:
//	  addr: ":8080"
//	router:
//	  prefix: /api
//	cors:
//	  enabled: true
//	  origins: [https://app.example.com]
//	upload:
//	  root: /var/lib/dispatch/uploads
//	  allowed_file_exts: .png,.jpg
//	  file_size: 10485760
type Settings struct {
	Server     ServerSettings     `config:"server"`
	Logging    LoggingSettings    `config:"logging"`
	Router     RouterSettings     `config:"router"`
	CORS       CORSSettings       `config:"cors"`
	Body       body.Config        `config:"body"`
	Upload     upload.Config      `config:"upload"`
	Static     StaticSettings     `config:"static"`
	Metrics    MetricsSettings    `config:"metrics"`
	Tracing    TracingSettings    `config:"tracing"`
	Health     HealthSettings     `config:"health"`
	Docs       DocsSettings       `config:"docs"`
	Errors     ErrorSettings      `config:"errors"`
	Middleware MiddlewareSettings `config:"middleware"`
}

// ServerSettings configures the HTTP server.
type ServerSettings struct {
	Addr              string        `config:"addr" default:":8080" validate:"required"`
	ReadHeaderTimeout time.Duration `config:"read_header_timeout" default:"5s" validate:"gte=0"`
	ReadTimeout       time.Duration `config:"read_timeout" default:"15s" validate:"gte=0"`
	WriteTimeout      time.Duration `config:"write_timeout" default:"30s" validate:"gte=0"`
	IdleTimeout       time.Duration `config:"idle_timeout" default:"60s" validate:"gte=0"`
	ShutdownTimeout   time.Duration `config:"shutdown_timeout" default:"10s" validate:"gt=0"`
	H2C               bool          `config:"h2c"`
	TLSCert           string        `config:"tls_cert" validate:"required_with=TLSKey"`
	TLSKey            string        `config:"tls_key" validate:"required_with=TLSCert"`
	HideBanner        bool          `config:"hide_banner"`
}

// LoggingSettings configures the process logger.
type LoggingSettings struct {
	Level       string `config:"level" default:"info" validate:"oneof=debug info warn error"`
	Format      string `config:"format" default:"json" validate:"oneof=json text"`
	ServiceName string `config:"service_name" default:"dispatch"`
	Version     string `config:"version"`
	Environment string `config:"environment" default:"development"`
	AddSource   bool   `config:"add_source"`
}

// RouterSettings configures path resolution and the default method set.
type RouterSettings struct {
	Prefix  string   `config:"prefix" default:"/" validate:"startswith=/"`
	Methods []string `config:"methods" validate:"dive,oneof=GET HEAD POST PUT PATCH DELETE OPTIONS get head post put patch delete options"`
}

// CORSSettings builds the router CORS policy. CORS is off unless enabled.
type CORSSettings struct {
	Enabled        bool     `config:"enabled"`
	Origins        []string `config:"origins"`
	Methods        []string `config:"methods"`
	AllowedHeaders []string `config:"allowed_headers"`
	ExposedHeaders []string `config:"exposed_headers"`
	Credentials    bool     `config:"credentials"`
	MaxAge         int      `config:"max_age" validate:"gte=0"`
}

// StaticSettings mounts a static directory at Path when Path is set.
type StaticSettings struct {
	Path                 string `config:"path" validate:"omitempty,startswith=/"`
	router.StaticOptions `config:",squash"`
}

// MetricsSettings configures request metrics.
type MetricsSettings struct {
	Enabled         bool          `config:"enabled"`
	Provider        string        `config:"provider" default:"prometheus" validate:"oneof=prometheus otlp stdout"`
	Endpoint        string        `config:"endpoint"`
	Path            string        `config:"path" default:"/metrics" validate:"startswith=/"`
	ExportInterval  time.Duration `config:"export_interval" default:"30s"`
	ExcludePaths    []string      `config:"exclude_paths"`
	ExcludePrefixes []string      `config:"exclude_prefixes"`
}

// TracingSettings configures request tracing.
type TracingSettings struct {
	Enabled        bool     `config:"enabled"`
	Provider       string   `config:"provider" default:"noop" validate:"oneof=noop stdout otlp otlp-http"`
	Endpoint       string   `config:"endpoint"`
	Insecure       bool     `config:"insecure"`
	SampleRate     float64  `config:"sample_rate" default:"1" validate:"gte=0,lte=1"`
	RecordHeaders  []string `config:"record_headers"`
	ExcludePaths   []string `config:"exclude_paths"`
	ServiceVersion string   `config:"service_version"`
}

// HealthSettings configures the liveness and readiness endpoints.
type HealthSettings struct {
	Disabled  bool          `config:"disabled"`
	Liveness  string        `config:"liveness" default:"/healthz" validate:"startswith=/"`
	Readiness string        `config:"readiness" default:"/readyz" validate:"startswith=/"`
	Timeout   time.Duration `config:"timeout" default:"1s" validate:"gt=0"`
}

// DocsSettings publishes the OpenAPI document of the annotated routes.
type DocsSettings struct {
	Enabled     bool     `config:"enabled"`
	Path        string   `config:"path" default:"/openapi.json" validate:"startswith=/"`
	UIPath      string   `config:"ui_path" validate:"omitempty,startswith=/"`
	Title       string   `config:"title"`
	Version     string   `config:"version" default:"0.0.0"`
	Description string   `config:"description"`
	Servers     []string `config:"servers"`
}

// ErrorSettings selects the body of failure responses.
type ErrorSettings struct {
	Format         string `config:"format" default:"simple" validate:"oneof=simple rfc9457"`
	ProblemBaseURL string `config:"problem_base_url" validate:"omitempty,url"`
	HideInternal   bool   `config:"hide_internal"`
}

// MiddlewareSettings selects the entries registered for every request.
type MiddlewareSettings struct {
	RequestID      RequestIDSettings   `config:"request_id"`
	AccessLog      AccessLogSettings   `config:"access_log"`
	Timeout        time.Duration       `config:"timeout" validate:"gte=0"`
	Compression    CompressionSettings `config:"compression"`
	Security       SecuritySettings    `config:"security"`
	RateLimit      RateLimitSettings   `config:"rate_limit"`
	BasicAuth      BasicAuthSettings   `config:"basic_auth"`
	MethodOverride bool                `config:"method_override"`
	TrailingSlash  string              `config:"trailing_slash" validate:"omitempty,oneof=remove add strict"`
}

// RequestIDSettings configures request ID generation.
type RequestIDSettings struct {
	Header string `config:"header" default:"X-Request-ID"`
	ULID   bool   `config:"ulid"`
}

// AccessLogSettings configures the access log.
type AccessLogSettings struct {
	Disabled      bool          `config:"disabled"`
	SampleRate    float64       `config:"sample_rate" default:"1" validate:"gte=0,lte=1"`
	SlowThreshold time.Duration `config:"slow_threshold" default:"1s"`
	ExcludePaths  []string      `config:"exclude_paths"`
}

// CompressionSettings configures response compression.
type CompressionSettings struct {
	Disabled bool `config:"disabled"`
	MinSize  int  `config:"min_size" default:"1024" validate:"gte=0"`
}

// SecuritySettings configures security headers.
type SecuritySettings struct {
	Disabled bool   `config:"disabled"`
	Preset   string `config:"preset" default:"production" validate:"oneof=production development"`
}

// RateLimitSettings configures the per-client token bucket.
type RateLimitSettings struct {
	Enabled           bool    `config:"enabled"`
	RequestsPerSecond float64 `config:"requests_per_second" default:"100" validate:"gt=0"`
	Burst             int     `config:"burst" default:"20" validate:"gt=0"`
	KeyHeader         string  `config:"key_header"`
}

// BasicAuthSettings protects the paths under Prefix.
type BasicAuthSettings struct {
	Prefix string            `config:"prefix" validate:"omitempty,startswith=/"`
	Realm  string            `config:"realm" default:"Restricted"`
	Users  map[string]string `config:"users" validate:"required_with=Prefix"`
}

// ErrStaticRoot is returned when a static path is configured without a root.
var ErrStaticRoot = errors.New("static.root is required when static.path is set")

// Validate implements [Validator].
func (s *Settings) Validate() error {
	if s.Static.Path != "" && s.Static.Root == "" {
		return NewFieldError("settings", "static.root", "validate", ErrStaticRoot)
	}
	return nil
}

// LoadSettings loads Settings from the given sources, typically a file and
// the environment:
//
//	s, err := config.LoadSettings(ctx,
//	    config.WithOptionalFile("dispatch.yaml"),
//	    config.WithEnv("DISPATCH_"),
//	)
func LoadSettings(ctx context.Context, opts ...Option) (*Settings, *Config, error) {
	s := &Settings{}
	c, err := New(append([]Option{WithBinding(s)}, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	if err = c.Load(ctx); err != nil {
		return nil, nil, err
	}
	return s, c, nil
}

// LoggingOptions converts the logging section.
func (s *Settings) LoggingOptions() ([]logging.Option, error) {
	level, err := logging.ParseLevel(s.Logging.Level)
	if err != nil {
		return nil, err
	}
	opts := []logging.Option{
		logging.WithHandlerType(logging.HandlerType(s.Logging.Format)),
		logging.WithLevel(level),
		logging.WithServiceName(s.Logging.ServiceName),
		logging.WithEnvironment(s.Logging.Environment),
		logging.WithSource(s.Logging.AddSource),
	}
	if s.Logging.Version != "" {
		opts = append(opts, logging.WithServiceVersion(s.Logging.Version))
	}
	return opts, nil
}

// CORSPolicy converts the cors section.
func (s *Settings) CORSPolicy() cors.Policy {
	c := s.CORS
	var opts []cors.Option
	switch {
	case len(c.Origins) == 0 || (len(c.Origins) == 1 && c.Origins[0] == "*"):
		opts = append(opts, cors.WithAllowAllOrigins())
	default:
		opts = append(opts, cors.WithAllowedOrigins(c.Origins...))
	}
	if len(c.Methods) > 0 {
		opts = append(opts, cors.WithAllowedMethods(c.Methods...))
	}
	if len(c.AllowedHeaders) > 0 {
		opts = append(opts, cors.WithAllowedHeaders(c.AllowedHeaders...))
	}
	if len(c.ExposedHeaders) > 0 {
		opts = append(opts, cors.WithExposedHeaders(c.ExposedHeaders...))
	}
	if c.MaxAge > 0 {
		opts = append(opts, cors.WithMaxAge(c.MaxAge))
	}
	opts = append(opts, cors.WithAllowCredentials(c.Credentials))
	return cors.New(opts...)
}

// problemTypes names the request faults of the router stages in problem
// details responses.
var problemTypes = []struct {
	code  int
	slug  string
	title string
}{
	{body.FaultCode, "malformed-body", "Malformed request body"},
	{validation.FaultCode, "validation-failed", "Request validation failed"},
	{upload.FaultCode, "upload-rejected", "Upload rejected"},
}

// ErrorFormatter converts the errors section.
func (s *Settings) ErrorFormatter() dispatcherrors.Formatter {
	e := s.Errors
	if e.Format != "rfc9457" {
		return &dispatcherrors.Simple{HideInternal: e.HideInternal}
	}
	f := dispatcherrors.NewRFC9457(e.ProblemBaseURL)
	f.HideInternal = e.HideInternal
	for _, pt := range problemTypes {
		f.WithProblemType(pt.code, pt.slug, pt.title)
	}
	return f
}

// RouterOptions converts the server, router, cors, body, upload, static
// and errors sections.
func (s *Settings) RouterOptions(logger *slog.Logger) []router.Option {
	opts := []router.Option{
		router.WithPrefix(s.Router.Prefix),
		router.WithBody(router.BodyOptions{Config: s.Body}),
		router.WithUpload(router.UploadOptions{Config: s.Upload}),
		router.WithStatic(s.Static.StaticOptions),
		router.WithServerTimeouts(s.Server.ReadHeaderTimeout, s.Server.ReadTimeout, s.Server.WriteTimeout, s.Server.IdleTimeout),
		router.WithH2C(s.Server.H2C),
		router.WithFormatter(s.ErrorFormatter()),
	}
	if len(s.Router.Methods) > 0 {
		opts = append(opts, router.WithMethods(s.Router.Methods...))
	}
	if s.CORS.Enabled {
		opts = append(opts, router.WithCORS(s.CORSPolicy()))
	}
	if logger != nil {
		opts = append(opts, router.WithLogger(logger))
	}
	return opts
}

// MetricsOptions converts the metrics section.
func (s *Settings) MetricsOptions(logger *slog.Logger) []metrics.Option {
	m := s.Metrics
	opts := []metrics.Option{
		metrics.WithServiceName(s.Logging.ServiceName),
		metrics.WithExportInterval(m.ExportInterval),
		metrics.WithExcludePaths(append([]string{m.Path}, m.ExcludePaths...)...),
	}
	if len(m.ExcludePrefixes) > 0 {
		opts = append(opts, metrics.WithExcludePrefixes(m.ExcludePrefixes...))
	}
	if metrics.Provider(m.Provider) == metrics.OTLPProvider && m.Endpoint != "" {
		opts = append(opts, metrics.WithOTLP(m.Endpoint))
	} else {
		opts = append(opts, metrics.WithProvider(metrics.Provider(m.Provider)))
	}
	if s.Logging.Version != "" {
		opts = append(opts, metrics.WithServiceVersion(s.Logging.Version))
	}
	if logger != nil {
		opts = append(opts, metrics.WithLogger(logger))
	}
	return opts
}

// TracingOptions converts the tracing section.
func (s *Settings) TracingOptions(logger *slog.Logger) []tracing.Option {
	t := s.Tracing
	opts := []tracing.Option{
		tracing.WithServiceName(s.Logging.ServiceName),
		tracing.WithSampleRate(t.SampleRate),
	}
	switch p := tracing.Provider(t.Provider); {
	case p == tracing.OTLPProvider && t.Insecure:
		opts = append(opts, tracing.WithOTLP(t.Endpoint, tracing.OTLPInsecure()))
	default:
		opts = append(opts, tracing.WithProvider(p), tracing.WithOTLPEndpoint(t.Endpoint))
	}
	version := t.ServiceVersion
	if version == "" {
		version = s.Logging.Version
	}
	if version != "" {
		opts = append(opts, tracing.WithServiceVersion(version))
	}
	if len(t.RecordHeaders) > 0 {
		opts = append(opts, tracing.WithHeaders(t.RecordHeaders...))
	}
	excluded := t.ExcludePaths
	if s.Metrics.Enabled {
		excluded = append(excluded, s.Metrics.Path)
	}
	if len(excluded) > 0 {
		opts = append(opts, tracing.WithExcludePaths(excluded...))
	}
	if logger != nil {
		opts = append(opts, tracing.WithLogger(logger))
	}
	return opts
}
