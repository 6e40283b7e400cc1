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
	"errors"
	"fmt"
	"slices"
	"sync"

	"rivaas.dev/dispatch/logging"
)

type hooks struct {
	mu         sync.Mutex
	onStart    []func(context.Context) error
	onShutdown []func(context.Context)
	onReload   []func(context.Context) error
}

// OnStart registers a hook run before the server listens. Hooks run in
// registration order and the first error aborts [App.Run].
//
// Example:
//
//	a.OnStart(func(ctx context.Context) error {
//	    return db.PingContext(ctx)
//	})
func (a *App) OnStart(fn func(context.Context) error) {
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onStart = append(a.hooks.onStart, fn)
}

// OnShutdown registers a hook run during graceful shutdown, before the
// server stops accepting connections. Hooks run in reverse registration
// order and receive a context bounded by the shutdown timeout.
func (a *App) OnShutdown(fn func(context.Context)) {
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onShutdown = append(a.hooks.onShutdown, fn)
}

// OnReload registers a hook run when the process receives SIGHUP or
// [App.Reload] is called. A failing hook is logged and the server keeps
// running.
//
// Example:
//
//	a.OnReload(func(ctx context.Context) error {
//	    s, _, err := config.LoadSettings(ctx, config.WithFile("dispatch.yaml"))
//	    if err != nil {
//	        return err
//	    }
//	    return a.SetLogLevel(s.Logging.Level)
//	})
func (a *App) OnReload(fn func(context.Context) error) {
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onReload = append(a.hooks.onReload, fn)
}

func (a *App) runStartHooks(ctx context.Context) error {
	a.hooks.mu.Lock()
	fns := slices.Clone(a.hooks.onStart)
	a.hooks.mu.Unlock()

	for i, fn := range fns {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("start hook %d: %w", i, err)
		}
	}
	return nil
}

func (a *App) runShutdownHooks(ctx context.Context) {
	a.hooks.mu.Lock()
	fns := slices.Clone(a.hooks.onShutdown)
	a.hooks.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i](ctx)
	}
}

func (a *App) hasReloadHooks() bool {
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	return len(a.hooks.onReload) > 0
}

// Reload runs the reload hooks in registration order and joins their
// errors.
func (a *App) Reload(ctx context.Context) error {
	a.hooks.mu.Lock()
	fns := slices.Clone(a.hooks.onReload)
	a.hooks.mu.Unlock()

	var errs []error
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetLogLevel changes the level of the process logger.
func (a *App) SetLogLevel(level string) error {
	l, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	a.logger.SetLevel(l)
	return nil
}
