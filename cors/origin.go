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

package cors

import (
	"regexp"
	"strings"
)

type originKind uint8

const (
	kindAny originKind = iota
	kindExact
	kindPattern
	kindList
	kindFunc
)

// OriginRule decides which request origins are allowed.
//
// A wildcard rule answers "*". An exact rule always answers its own value.
// Pattern, list and function rules reflect the request origin when it is
// allowed and omit the header otherwise.
type OriginRule struct {
	kind    originKind
	exact   string
	pattern *regexp.Regexp
	list    []OriginRule
	fn      func(origin string) bool
}

// AnyOrigin allows every origin.
func AnyOrigin() OriginRule {
	return OriginRule{kind: kindAny}
}

// ExactOrigin answers with the fixed origin s. An empty s or "*" is a wildcard.
func ExactOrigin(s string) OriginRule {
	if s == "" || s == "*" {
		return AnyOrigin()
	}
	return OriginRule{kind: kindExact, exact: s}
}

// PatternOrigin allows origins matching re.
func PatternOrigin(re *regexp.Regexp) OriginRule {
	return OriginRule{kind: kindPattern, pattern: re}
}

// OriginList allows an origin if any of rules does; the first match wins.
// Exact rules inside a list compare against the request origin.
func OriginList(rules ...OriginRule) OriginRule {
	return OriginRule{kind: kindList, list: rules}
}

// OriginFunc allows origins for which fn returns true.
func OriginFunc(fn func(origin string) bool) OriginRule {
	return OriginRule{kind: kindFunc, fn: fn}
}

// ParseOrigin builds a rule from configuration text.
// "*" or "" is a wildcard, a value wrapped in slashes ("/^https://.*$/") is a
// pattern, a comma separated value is a list, anything else is exact.
func ParseOrigin(s string) (OriginRule, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return AnyOrigin(), nil
	}
	if strings.Contains(s, ",") {
		var rules []OriginRule
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			rule, err := ParseOrigin(part)
			if err != nil {
				return OriginRule{}, err
			}
			rules = append(rules, rule)
		}
		return OriginList(rules...), nil
	}
	if len(s) > 1 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		re, err := regexp.Compile(s[1 : len(s)-1])
		if err != nil {
			return OriginRule{}, err
		}
		return PatternOrigin(re), nil
	}
	return ExactOrigin(s), nil
}

// Allows reports whether origin is acceptable under the rule.
func (r OriginRule) Allows(origin string) bool {
	switch r.kind {
	case kindAny:
		return true
	case kindExact:
		return origin == r.exact
	case kindPattern:
		return r.pattern != nil && r.pattern.MatchString(origin)
	case kindList:
		for _, rule := range r.list {
			if rule.Allows(origin) {
				return true
			}
		}
		return false
	case kindFunc:
		return r.fn != nil && r.fn(origin)
	default:
		return false
	}
}
