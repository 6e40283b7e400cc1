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
	"io"

	"rivaas.dev/dispatch/router"
)

// Option configures an App.
type Option func(*App)

// WithLogOutput sets where the logger writes. Default: os.Stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *App) {
		a.logOutput = w
	}
}

// WithBannerOutput sets where the startup banner is printed. A nil writer
// disables the banner. Default: os.Stdout.
func WithBannerOutput(w io.Writer) Option {
	return func(a *App) {
		a.bannerOutput = w
	}
}

// WithRouterOptions appends router options after the ones derived from the
// settings, so they take precedence.
func WithRouterOptions(opts ...router.Option) Option {
	return func(a *App) {
		a.routerOptions = append(a.routerOptions, opts...)
	}
}

// WithLivenessCheck adds a check to the liveness endpoint.
//
// Example:
//
//	app.WithLivenessCheck("goroutines", func(ctx context.Context) error {
//	    if runtime.NumGoroutine() > 10000 {
//	        return errors.New("too many goroutines")
//	    }
//	    return nil
//	})
func WithLivenessCheck(name string, fn CheckFunc) Option {
	return func(a *App) {
		a.health.liveness[name] = fn
	}
}

// WithReadinessCheck adds a check to the readiness endpoint.
//
// Example:
//
//	app.WithReadinessCheck("database", db.PingContext)
func WithReadinessCheck(name string, fn CheckFunc) Option {
	return func(a *App) {
		a.health.readiness[name] = fn
	}
}
