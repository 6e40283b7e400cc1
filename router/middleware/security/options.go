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

package security

// WithFrameOptions sets X-Frame-Options ("DENY", "SAMEORIGIN"); "" omits it.
func WithFrameOptions(value string) Option {
	return func(cfg *config) {
		cfg.frameOptions = value
	}
}

// WithContentTypeNosniff toggles X-Content-Type-Options: nosniff.
func WithContentTypeNosniff(enabled bool) Option {
	return func(cfg *config) {
		cfg.contentTypeNosniff = enabled
	}
}

// WithHSTS configures Strict-Transport-Security. A maxAge of zero disables it.
func WithHSTS(maxAge int, includeSubdomains, preload bool) Option {
	return func(cfg *config) {
		cfg.hstsMaxAge = maxAge
		cfg.hstsIncludeSubdomains = includeSubdomains
		cfg.hstsPreload = preload
	}
}

// WithTrustForwardedProto treats X-Forwarded-Proto: https as a TLS request.
// Enable only behind a proxy that overwrites the header.
func WithTrustForwardedProto() Option {
	return func(cfg *config) {
		cfg.trustForwardedProto = true
	}
}

// WithContentSecurityPolicy sets Content-Security-Policy; "" omits it.
func WithContentSecurityPolicy(policy string) Option {
	return func(cfg *config) {
		cfg.contentSecurityPolicy = policy
	}
}

// WithReferrerPolicy sets Referrer-Policy; "" omits it.
func WithReferrerPolicy(policy string) Option {
	return func(cfg *config) {
		cfg.referrerPolicy = policy
	}
}

// WithPermissionsPolicy sets Permissions-Policy; "" omits it.
func WithPermissionsPolicy(policy string) Option {
	return func(cfg *config) {
		cfg.permissionsPolicy = policy
	}
}

// WithCrossOriginOpenerPolicy sets Cross-Origin-Opener-Policy; "" omits it.
func WithCrossOriginOpenerPolicy(policy string) Option {
	return func(cfg *config) {
		cfg.crossOriginOpener = policy
	}
}

// WithCustomHeader adds a header set on every response.
func WithCustomHeader(name, value string) Option {
	return func(cfg *config) {
		cfg.customHeaders = append(cfg.customHeaders, [2]string{name, value})
	}
}

// NoSecurityHeaders clears every default; combine with the With options to
// set only selected headers.
func NoSecurityHeaders() Option {
	return func(cfg *config) {
		*cfg = config{}
	}
}

// DevelopmentPreset relaxes the policy for local work: inline scripts are
// allowed, framing from the same origin is allowed and HSTS is off.
func DevelopmentPreset() Option {
	return func(cfg *config) {
		cfg.frameOptions = "SAMEORIGIN"
		cfg.contentTypeNosniff = true
		cfg.contentSecurityPolicy = "default-src 'self' 'unsafe-inline' 'unsafe-eval'; img-src 'self' data:"
		cfg.referrerPolicy = "no-referrer-when-downgrade"
		cfg.hstsMaxAge = 0
	}
}

// ProductionPreset enables every header with strict values, HSTS preload
// included.
func ProductionPreset() Option {
	return func(cfg *config) {
		cfg.frameOptions = "DENY"
		cfg.contentTypeNosniff = true
		cfg.contentSecurityPolicy = "default-src 'self'"
		cfg.referrerPolicy = "strict-origin-when-cross-origin"
		cfg.permissionsPolicy = "geolocation=(), microphone=(), camera=()"
		cfg.crossOriginOpener = "same-origin"
		cfg.hstsMaxAge = 31536000
		cfg.hstsIncludeSubdomains = true
		cfg.hstsPreload = true
	}
}
