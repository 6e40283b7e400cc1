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

// Package pathfilter matches request paths against exact paths, prefixes
// and regular expressions. Metrics, tracing and the access log use it to
// skip endpoints such as health checks and the scrape route.
package pathfilter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Filter is a set of excluded paths. The zero value excludes nothing and
// is ready to use. A Filter is not safe for concurrent mutation; build it
// before serving and only call [Filter.Match] afterwards.
type Filter struct {
	exact    map[string]struct{}
	prefixes []string
	patterns []*regexp.Regexp
}

// Exact adds paths that match only as a whole.
func (f *Filter) Exact(paths ...string) {
	if f.exact == nil {
		f.exact = make(map[string]struct{}, len(paths))
	}
	for _, p := range paths {
		f.exact[p] = struct{}{}
	}
}

// Prefix adds path prefixes. Empty prefixes are ignored.
func (f *Filter) Prefix(prefixes ...string) {
	for _, p := range prefixes {
		if p != "" {
			f.prefixes = append(f.prefixes, p)
		}
	}
}

// Pattern compiles and adds regular expressions. Valid expressions are
// added even when others fail; the failures are joined in the result.
func (f *Filter) Pattern(exprs ...string) error {
	var errs []error
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("path pattern %q: %w", expr, err))
			continue
		}
		f.patterns = append(f.patterns, re)
	}
	return errors.Join(errs...)
}

// Match reports whether path is excluded. A nil Filter matches nothing.
func (f *Filter) Match(path string) bool {
	if f == nil {
		return false
	}
	if _, ok := f.exact[path]; ok {
		return true
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, re := range f.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Empty reports whether the filter excludes nothing.
func (f *Filter) Empty() bool {
	return f == nil || len(f.exact) == 0 && len(f.prefixes) == 0 && len(f.patterns) == 0
}
