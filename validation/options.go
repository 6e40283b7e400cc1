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

package validation

import (
	"errors"

	"golang.org/x/text/language"
)

// Redactor reports whether the value at path must be hidden from error details.
//
// Example:
//
//	redactor := func(path string) bool {
//	    return strings.Contains(path, "password") || strings.Contains(path, "token")
//	}
type Redactor func(path string) bool

// config holds the options of a [Validator].
type config struct {
	maxErrors    int
	assertFormat bool
	redactor     Redactor
	language     language.Tag
}

func defaultConfig() *config {
	return &config{
		assertFormat: true,
		language:     language.English,
	}
}

func (c *config) validate() error {
	if c.maxErrors < 0 {
		return errors.New("validation: maxErrors must be non-negative")
	}
	return nil
}

// Option configures a [Validator].
type Option func(*config)

// WithMaxErrors limits the number of reported violations. Zero means unlimited.
func WithMaxErrors(n int) Option {
	return func(c *config) {
		c.maxErrors = n
	}
}

// WithFormatAssertion toggles evaluation of the "format" keyword. Enabled by default.
func WithFormatAssertion(enabled bool) Option {
	return func(c *config) {
		c.assertFormat = enabled
	}
}

// WithRedactor hides the offending value of matching paths in error metadata.
func WithRedactor(r Redactor) Option {
	return func(c *config) {
		c.redactor = r
	}
}

// WithLanguage selects the language of violation messages.
func WithLanguage(tag language.Tag) Option {
	return func(c *config) {
		c.language = tag
	}
}
