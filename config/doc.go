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

// Package config loads configuration from files and the environment.
//
// Sources are read in the order they are given and merged, later sources
// overriding earlier ones key by key. Keys are case-insensitive. YAML, JSON
// and TOML files are supported; the format follows the file extension.
//
//	cfg := config.MustNew(
//	    config.WithOptionalFile("dispatch.yaml"),
//	    config.WithEnv("DISPATCH_"),
//	)
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	addr := config.GetOr(cfg, "server.addr", ":8080")
//
// # Binding
//
// [WithBinding] decodes the merged values into a struct on every Load.
// Fields are matched by their `config` tag with weak typing, so "30s"
// becomes a time.Duration and "a,b" a []string. Zero fields take the value
// of their `default` tag. `validate` tags are checked with
// go-playground/validator, then the struct's own Validate method if it has
// one.
//
// [Settings] is the document of a dispatch server and converts to router,
// logging, metrics and tracing options. [LoadSettings] loads it in one call.
//
// # Environment
//
// With prefix "DISPATCH_", DISPATCH_SERVER__ADDR sets server.addr and
// DISPATCH_UPLOAD__FILE_SIZE sets upload.file_size: a double underscore
// separates nesting levels.
package config
