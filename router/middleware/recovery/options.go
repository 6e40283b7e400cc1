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

package recovery

import (
	"log/slog"

	"rivaas.dev/dispatch/router"
)

// WithoutLogging disables panic logging.
func WithoutLogging() Option {
	return func(cfg *config) {
		cfg.logger = nil
		cfg.useRouter = false
	}
}

// WithLogger logs panics to logger instead of the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
		cfg.useRouter = logger == nil
	}
}

// WithHandler replaces the default error response. It is not called when
// the response was already started.
func WithHandler(handler func(c *router.Context, err any)) Option {
	return func(cfg *config) {
		if handler != nil {
			cfg.handler = handler
		}
	}
}

// WithStackTrace enables or disables stack capture. Default: true.
func WithStackTrace(enabled bool) Option {
	return func(cfg *config) {
		cfg.stackTrace = enabled
	}
}

// WithStackSize caps the logged stack in bytes. Default: 4KB.
func WithStackSize(size int) Option {
	return func(cfg *config) {
		cfg.stackSize = size
	}
}

// WithPrettyStack prints the stack to stderr as plain text instead of
// attaching it to the log record. By default this is on only when stderr
// is a terminal.
func WithPrettyStack(enabled bool) Option {
	return func(cfg *config) {
		cfg.prettyStack = &enabled
	}
}
