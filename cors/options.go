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

import "regexp"

// WithAllowAllOrigins answers every origin with "*".
func WithAllowAllOrigins() Option {
	return func(p *Policy) { p.Origin = AnyOrigin() }
}

// WithOrigin answers with a fixed origin.
func WithOrigin(origin string) Option {
	return func(p *Policy) { p.Origin = ExactOrigin(origin) }
}

// WithAllowedOrigins reflects the request origin when it is one of origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(p *Policy) {
		rules := make([]OriginRule, 0, len(origins))
		for _, o := range origins {
			rules = append(rules, OriginRule{kind: kindExact, exact: o})
		}
		p.Origin = OriginList(rules...)
	}
}

// WithOriginPattern reflects the request origin when it matches re.
func WithOriginPattern(re *regexp.Regexp) Option {
	return func(p *Policy) { p.Origin = PatternOrigin(re) }
}

// WithAllowOriginFunc reflects the request origin when fn accepts it.
func WithAllowOriginFunc(fn func(origin string) bool) Option {
	return func(p *Policy) { p.Origin = OriginFunc(fn) }
}

// WithOriginRule sets an arbitrary origin rule.
func WithOriginRule(rule OriginRule) Option {
	return func(p *Policy) { p.Origin = rule }
}

// WithAllowedMethods sets the methods advertised on preflight.
func WithAllowedMethods(methods ...string) Option {
	return func(p *Policy) { p.Methods = methods }
}

// WithAllowedHeaders sets the headers advertised on preflight.
func WithAllowedHeaders(headers ...string) Option {
	return func(p *Policy) { p.AllowedHeaders = headers }
}

// WithExposedHeaders sets the headers exposed to the client.
func WithExposedHeaders(headers ...string) Option {
	return func(p *Policy) { p.ExposedHeaders = headers }
}

// WithAllowCredentials enables Access-Control-Allow-Credentials.
func WithAllowCredentials(allow bool) Option {
	return func(p *Policy) { p.Credentials = allow }
}

// WithMaxAge sets the preflight cache lifetime in seconds.
func WithMaxAge(seconds int) Option {
	return func(p *Policy) { p.MaxAge = seconds }
}

// WithOptionsSuccessStatus sets the status of successful preflight responses.
func WithOptionsSuccessStatus(status int) Option {
	return func(p *Policy) { p.OptionsSuccessStatus = status }
}
