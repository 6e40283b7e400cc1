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
	"context"
	"net/http"
	"time"

	dispatcherrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/router"
)

// Errors written by the health endpoints.
var (
	ErrNotHealthy = dispatcherrors.New(http.StatusServiceUnavailable, 503910, "Service not healthy")
	ErrNotReady   = dispatcherrors.New(http.StatusServiceUnavailable, 503911, "Service not ready")
)

// CheckFunc reports whether a dependency is usable. ctx carries the check
// timeout.
type CheckFunc func(ctx context.Context) error

type healthChecks struct {
	liveness  map[string]CheckFunc
	readiness map[string]CheckFunc
}

func newHealthChecks() healthChecks {
	return healthChecks{
		liveness:  make(map[string]CheckFunc),
		readiness: make(map[string]CheckFunc),
	}
}

// registerHealth mounts the liveness endpoint, answering 200 "ok", and the
// readiness endpoint, answering 204. Either answers 503 when one of its
// checks fails.
func (a *App) registerHealth() {
	s := a.settings.Health

	a.router.GET(s.Liveness, func(c *router.Context) {
		c.Header("Cache-Control", "no-store")
		if failures := runChecks(c.Request.Context(), a.health.liveness, s.Timeout); len(failures) > 0 {
			c.Logger().Warn("liveness check failed", "failures", failures)
			c.WriteError(ErrNotHealthy)
			return
		}
		if err := c.String(http.StatusOK, "ok"); err != nil {
			c.Logger().Error("failed to write liveness response", "err", err)
		}
	})

	a.router.GET(s.Readiness, func(c *router.Context) {
		c.Header("Cache-Control", "no-store")
		if failures := runChecks(c.Request.Context(), a.health.readiness, s.Timeout); len(failures) > 0 {
			c.Logger().Warn("readiness check failed", "failures", failures)
			c.WriteError(ErrNotReady)
			return
		}
		c.NoContent()
	})
}

// runChecks runs every check in its own goroutine, each bounded by timeout,
// and returns the error message of each failed check by name.
func runChecks(ctx context.Context, checks map[string]CheckFunc, timeout time.Duration) map[string]string {
	type result struct {
		name string
		err  error
	}

	results := make(chan result, len(checks))
	for name, fn := range checks {
		go func() {
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			results <- result{name, fn(checkCtx)}
		}()
	}

	failures := make(map[string]string)
	for range len(checks) {
		r := <-results
		if r.err != nil {
			failures[r.name] = r.err.Error()
		}
	}
	return failures
}
