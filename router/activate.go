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

import "fmt"

// Hook runs once at activation with the registered terminal routes.
type Hook func(routes []*Route)

// BeforeStart adds a hook run by [Router.Activate]. Hooks run in the order
// they were added, before validators are compiled.
func (r *Router) BeforeStart(fn Hook) *Router {
	if fn == nil {
		r.must(ErrNilHandler)
	}
	if r.frozen.Load() {
		r.must(ErrFrozen)
	}
	r.hooks = append(r.hooks, fn)
	return r
}

// Activate runs the before-start hooks, compiles the validation stages
// and freezes the registry. It runs once; later calls return the first
// result. ServeHTTP and Dispatch activate the router on first use.
//
// Registering after activation panics with [ErrFrozen].
func (r *Router) Activate() error {
	r.activateOnce.Do(func() {
		r.frozen.Store(true)
		routes := r.Routes()
		for _, hook := range r.hooks {
			hook(routes)
		}
		r.activateErr = r.compileValidators()
		r.emit(DiagActivated, "router activated", map[string]any{
			"routes":  len(r.routes),
			"entries": len(r.entries),
		})
	})
	return r.activateErr
}

// Warmup is an alias of [Router.Activate].
func (r *Router) Warmup() error {
	return r.Activate()
}

// Frozen reports whether the router has been activated.
func (r *Router) Frozen() bool {
	return r.frozen.Load()
}

func (r *Router) compileValidators() error {
	for _, rt := range r.routes {
		vs := rt.validate
		if vs == nil {
			continue
		}
		if rt.typ != TypeDefine && rt.typ != TypeUpload {
			continue
		}
		op, err := r.validator.Validator.Compile(vs.params)
		if err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrValidatorCompile, vs.method, vs.path, err)
		}
		vs.op = op
	}
	return nil
}
