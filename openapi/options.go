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

package openapi

// Option configures a Document.
type Option func(*Document)

// WithTitle sets the API title and version.
func WithTitle(title, version string) Option {
	return func(d *Document) {
		d.info.Title = title
		d.info.Version = version
	}
}

// WithDescription sets the API description. Markdown is allowed.
func WithDescription(description string) Option {
	return func(d *Document) {
		d.info.Description = description
	}
}

// WithServer adds a server URL.
func WithServer(url, description string) Option {
	return func(d *Document) {
		d.servers = append(d.servers, Server{URL: url, Description: description})
	}
}
