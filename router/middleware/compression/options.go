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

package compression

import (
	"compress/gzip"
	"log/slog"
	"strings"
)

// Option configures the compression middleware.
type Option func(*config)

type config struct {
	logger              *slog.Logger
	gzipLevel           int
	brotliLevel         int
	minSize             int
	enableGzip          bool
	enableBrotli        bool
	excludePaths        map[string]bool
	excludeExtensions   []string
	excludeContentTypes []string
}

func defaultConfig() *config {
	return &config{
		gzipLevel:    gzip.DefaultCompression,
		brotliLevel:  4,
		enableGzip:   true,
		enableBrotli: true,
		excludePaths: make(map[string]bool),
	}
}

func (cfg *config) levelFor(encoding string) int {
	if encoding == Brotli {
		return cfg.brotliLevel
	}
	return cfg.gzipLevel
}

func (cfg *config) excluded(path string) bool {
	if cfg.excludePaths[path] {
		return true
	}
	for _, ext := range cfg.excludeExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// WithGzipLevel sets the gzip level, from gzip.HuffmanOnly to gzip.BestCompression.
// Out of range values are ignored.
func WithGzipLevel(level int) Option {
	return func(cfg *config) {
		if level >= gzip.HuffmanOnly && level <= gzip.BestCompression {
			cfg.gzipLevel = level
		}
	}
}

// WithBrotliLevel sets the Brotli level (0-11). Default: 4.
func WithBrotliLevel(level int) Option {
	return func(cfg *config) {
		if level >= 0 && level <= 11 {
			cfg.brotliLevel = level
		}
	}
}

// WithBrotliDisabled negotiates gzip only.
func WithBrotliDisabled() Option {
	return func(cfg *config) {
		cfg.enableBrotli = false
	}
}

// WithGzipDisabled negotiates Brotli only.
func WithGzipDisabled() Option {
	return func(cfg *config) {
		cfg.enableGzip = false
	}
}

// WithMinSize leaves bodies smaller than size bytes uncompressed.
func WithMinSize(size int) Option {
	return func(cfg *config) {
		cfg.minSize = max(size, 0)
	}
}

// WithExcludePaths never compresses these exact paths.
func WithExcludePaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			cfg.excludePaths[p] = true
		}
	}
}

// WithExcludeExtensions never compresses paths ending in these extensions,
// e.g. ".png".
func WithExcludeExtensions(extensions ...string) Option {
	return func(cfg *config) {
		cfg.excludeExtensions = append(cfg.excludeExtensions, extensions...)
	}
}

// WithExcludeContentTypes never compresses responses whose Content-Type
// contains one of these values.
func WithExcludeContentTypes(contentTypes ...string) Option {
	return func(cfg *config) {
		for _, ct := range contentTypes {
			cfg.excludeContentTypes = append(cfg.excludeContentTypes, strings.ToLower(ct))
		}
	}
}

// WithLogger reports finalization errors.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}
