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

package compiler

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// MatchAll is the template that accepts every path.
const MatchAll = "(.*)"

// ErrInvalidTemplate indicates that a path template could not be compiled.
var ErrInvalidTemplate = errors.New("invalid path template")

// Params holds the captures of one successful match, keyed by parameter name.
// Unnamed groups are keyed by their zero-based index ("0", "1", ...).
type Params map[string]string

// Matcher is a compiled path template.
// A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	pattern string         // Original template or raw expression
	re      *regexp.Regexp // Anchored expression
	keys    []string       // Parameter names in capture order
	groups  []int          // Sub-expression index for each key
}

// Compile compiles a path template into a Matcher.
//
// Template syntax:
//   - literal segments match themselves
//   - ":name" captures one segment
//   - ":name(expr)" captures with a custom expression
//   - ":name?" captures an optional segment
//   - ":name*" captures zero or more segments, ":name+" one or more
//   - "(expr)" is an unnamed capture keyed by its index
//   - a bare "*" is shorthand for "(.*)"
//
// A trailing slash on the request path is always tolerated.
func Compile(template string) (*Matcher, error) {
	template = strings.TrimSpace(template)
	if template == "" {
		template = MatchAll
	}

	var (
		b       strings.Builder
		names   []string
		unnamed int
	)

	b.WriteString("^")
	for i := 0; i < len(template); {
		ch := template[i]
		switch {
		case ch == ':' && i+1 < len(template) && isNameChar(template[i+1]):
			j := i + 1
			for j < len(template) && isNameChar(template[j]) {
				j++
			}
			name := template[i+1 : j]

			expr := `[^/]+?`
			if j < len(template) && template[j] == '(' {
				end, err := closingParen(template, j)
				if err != nil {
					return nil, err
				}
				expr = template[j+1 : end]
				j = end + 1
			}

			modifier := byte(0)
			if j < len(template) && strings.IndexByte("?*+", template[j]) >= 0 {
				modifier = template[j]
				j++
			}

			group := groupName(len(names))
			names = append(names, name)
			writeCapture(&b, group, expr, modifier)
			i = j

		case ch == '(':
			end, err := closingParen(template, i)
			if err != nil {
				return nil, err
			}
			group := groupName(len(names))
			names = append(names, strconv.Itoa(unnamed))
			unnamed++
			fmt.Fprintf(&b, "(?P<%s>%s)", group, template[i+1:end])
			i = end + 1

		case ch == '*':
			group := groupName(len(names))
			names = append(names, strconv.Itoa(unnamed))
			unnamed++
			fmt.Fprintf(&b, "(?P<%s>.*)", group)
			i++

		default:
			j := i
			for j < len(template) && template[j] != ':' && template[j] != '(' && template[j] != '*' {
				j++
			}
			if j == i {
				// A colon that does not start a name is literal.
				j = i + 1
			}
			b.WriteString(regexp.QuoteMeta(template[i:j]))
			i = j
		}
	}

	expr := strings.TrimSuffix(b.String(), "/")
	expr += "/?$"

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidTemplate, template, err)
	}

	m := &Matcher{pattern: template, re: re, keys: names}
	m.groups = make([]int, len(names))
	for i := range names {
		m.groups[i] = re.SubexpIndex(groupName(i))
	}

	return m, nil
}

// MustCompile is like Compile but panics if the template cannot be compiled.
func MustCompile(template string) *Matcher {
	m, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return m
}

// CompileRegexp wraps a raw expression without modification.
// Named sub-expressions are keyed by name, the others by their zero-based index.
func CompileRegexp(re *regexp.Regexp) *Matcher {
	m := &Matcher{pattern: re.String(), re: re}
	unnamed := 0
	for i, name := range re.SubexpNames() {
		if i == 0 {
			continue
		}
		if name == "" {
			name = strconv.Itoa(unnamed)
			unnamed++
		}
		m.keys = append(m.keys, name)
		m.groups = append(m.groups, i)
	}
	return m
}

// Match reports whether path is accepted and returns its captures.
// Captured values are path-unescaped; a value that fails to unescape is kept raw.
func (m *Matcher) Match(path string) (Params, bool) {
	sub := m.re.FindStringSubmatch(path)
	if sub == nil {
		return nil, false
	}

	params := make(Params, len(m.keys))
	for i, key := range m.keys {
		idx := m.groups[i]
		if idx < 0 || idx >= len(sub) || sub[idx] == "" {
			continue
		}
		value := sub[idx]
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		params[key] = value
	}

	return params, true
}

// Keys returns the parameter names in capture order.
func (m *Matcher) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Pattern returns the template the matcher was compiled from.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// String returns the compiled expression.
func (m *Matcher) String() string {
	return m.re.String()
}

func writeCapture(b *strings.Builder, group, expr string, modifier byte) {
	switch modifier {
	case '?':
		// The separator before an optional capture is optional too.
		if trimSlash(b) {
			fmt.Fprintf(b, "(?:/(?P<%s>%s))?", group, expr)
			return
		}
		fmt.Fprintf(b, "(?P<%s>%s)?", group, expr)
	case '*':
		if trimSlash(b) {
			fmt.Fprintf(b, "(?:/(?P<%s>%s(?:/%s)*))?", group, expr, expr)
			return
		}
		fmt.Fprintf(b, "(?P<%s>(?:%s(?:/%s)*)?)", group, expr, expr)
	case '+':
		fmt.Fprintf(b, "(?P<%s>%s(?:/%s)*)", group, expr, expr)
	default:
		fmt.Fprintf(b, "(?P<%s>%s)", group, expr)
	}
}

// trimSlash removes a trailing "/" from b and reports whether it did.
func trimSlash(b *strings.Builder) bool {
	s := b.String()
	if !strings.HasSuffix(s, "/") {
		return false
	}
	b.Reset()
	b.WriteString(strings.TrimSuffix(s, "/"))
	return true
}

func closingParen(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w %q: unbalanced parenthesis at %d", ErrInvalidTemplate, s, open)
}

func groupName(i int) string {
	return "p" + strconv.Itoa(i)
}

func isNameChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
