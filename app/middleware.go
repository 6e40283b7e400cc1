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
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"rivaas.dev/dispatch/config"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/router/middleware/accesslog"
	"rivaas.dev/dispatch/router/middleware/basicauth"
	"rivaas.dev/dispatch/router/middleware/compression"
	"rivaas.dev/dispatch/router/middleware/methodoverride"
	"rivaas.dev/dispatch/router/middleware/ratelimit"
	"rivaas.dev/dispatch/router/middleware/recovery"
	"rivaas.dev/dispatch/router/middleware/requestid"
	"rivaas.dev/dispatch/router/middleware/security"
	"rivaas.dev/dispatch/router/middleware/timeout"
	"rivaas.dev/dispatch/router/middleware/trailingslash"
)

var trailingSlashPolicies = map[string]trailingslash.Policy{
	"remove": trailingslash.PolicyRemove,
	"add":    trailingslash.PolicyAdd,
	"strict": trailingslash.PolicyStrict,
}

// handlerWrappers returns the policies applied before route matching.
func handlerWrappers(m config.MiddlewareSettings) []func(http.Handler) http.Handler {
	var wrappers []func(http.Handler) http.Handler
	if policy, ok := trailingSlashPolicies[m.TrailingSlash]; ok {
		wrappers = append(wrappers, func(next http.Handler) http.Handler {
			return trailingslash.Wrap(next, trailingslash.WithPolicy(policy))
		})
	}
	if m.MethodOverride {
		wrappers = append(wrappers, func(next http.Handler) http.Handler {
			return methodoverride.Wrap(next)
		})
	}
	return wrappers
}

// operationalPaths are served without access logging or timeouts.
func (a *App) operationalPaths() []string {
	s := a.settings
	var paths []string
	if !s.Health.Disabled {
		paths = append(paths, s.Health.Liveness, s.Health.Readiness)
	}
	if a.metrics != nil {
		paths = append(paths, s.Metrics.Path)
	}
	return paths
}

// registerMiddleware registers the entries of the middleware section for
// every path, ahead of any route.
func (a *App) registerMiddleware(logger *slog.Logger) error {
	m := a.settings.Middleware
	skip := a.operationalPaths()

	ridOpts := []requestid.Option{
		requestid.WithHeader(m.RequestID.Header),
		requestid.WithLogger(logger),
	}
	if m.RequestID.ULID {
		ridOpts = append(ridOpts, requestid.WithULID())
	}
	a.router.Use(requestid.New(ridOpts...))

	if !m.AccessLog.Disabled {
		a.router.Use(accesslog.New(
			accesslog.WithLogger(logger),
			accesslog.WithSampleRate(m.AccessLog.SampleRate),
			accesslog.WithSlowThreshold(m.AccessLog.SlowThreshold),
			accesslog.WithExcludePaths(append(skip, m.AccessLog.ExcludePaths...)...),
		))
	}

	a.router.Use(recovery.New(
		recovery.WithLogger(logger),
		recovery.WithPrettyStack(a.settings.Logging.Environment == "development"),
	))

	if !m.Security.Disabled {
		preset := security.ProductionPreset()
		if m.Security.Preset == "development" {
			preset = security.DevelopmentPreset()
		}
		a.router.Use(security.New(preset))
	}

	if !m.Compression.Disabled {
		a.router.Use(compression.New(
			compression.WithMinSize(m.Compression.MinSize),
			compression.WithExcludePaths(skip...),
			compression.WithLogger(logger),
		))
	}

	if m.Timeout > 0 {
		a.router.Use(timeout.New(
			timeout.WithDuration(m.Timeout),
			timeout.WithSkipPaths(skip...),
			timeout.WithLogger(logger),
		))
	}

	if m.RateLimit.Enabled {
		rlOpts := []ratelimit.Option{
			ratelimit.WithRequestsPerSecond(m.RateLimit.RequestsPerSecond),
			ratelimit.WithBurst(m.RateLimit.Burst),
			ratelimit.WithLogger(logger),
		}
		if m.RateLimit.KeyHeader != "" {
			rlOpts = append(rlOpts, ratelimit.WithKeyFunc(ratelimit.ByHeader(m.RateLimit.KeyHeader)))
		}
		a.router.Use(ratelimit.New(rlOpts...))
	}

	if m.BasicAuth.Prefix != "" {
		return a.router.AddEntry(router.RouteConfig{
			Pattern: subtree(m.BasicAuth.Prefix),
			Handlers: []router.HandlerFunc{basicauth.New(
				basicauth.WithUsers(m.BasicAuth.Users),
				basicauth.WithRealm(m.BasicAuth.Realm),
			)},
		})
	}
	return nil
}

// subtree matches prefix and every path below it.
func subtree(prefix string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(strings.TrimSuffix(prefix, "/")) + "(/.*)?$")
}
