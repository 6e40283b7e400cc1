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

package requestid

import "log/slog"

// WithHeader sets the header name. Default: "X-Request-ID".
func WithHeader(headerName string) Option {
	return func(cfg *config) {
		cfg.headerName = headerName
	}
}

// WithULID generates 26-character ULIDs instead of UUID v7.
func WithULID() Option {
	return func(cfg *config) {
		cfg.generator = generateULID
	}
}

// WithGenerator sets a custom ID generator.
//
// Example:
//
//	requestid.New(requestid.WithGenerator(func() string {
//	    return fmt.Sprintf("req-%d", time.Now().UnixNano())
//	}))
func WithGenerator(generator func() string) Option {
	return func(cfg *config) {
		if generator != nil {
			cfg.generator = generator
		}
	}
}

// WithAllowClientID controls whether a request ID sent by the client is
// reused. Default: true. Invalid client IDs are always replaced.
func WithAllowClientID(allow bool) Option {
	return func(cfg *config) {
		cfg.allowClientID = allow
	}
}

// WithLogger stores logger, with the request_id attribute, in the request
// context for retrieval with logging.FromContext.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}
