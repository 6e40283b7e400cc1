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

// Package security sets protective response headers such as
// Content-Security-Policy, X-Frame-Options and Strict-Transport-Security.
package security

import (
	"net/http"
	"strconv"

	"rivaas.dev/dispatch/router"
)

// Option configures the security middleware.
type Option func(*config)

type config struct {
	frameOptions          string
	contentTypeNosniff    bool
	contentSecurityPolicy string
	referrerPolicy        string
	permissionsPolicy     string
	crossOriginOpener     string

	hstsMaxAge            int
	hstsIncludeSubdomains bool
	hstsPreload           bool
	trustForwardedProto   bool

	customHeaders [][2]string
}

func defaultConfig() *config {
	return &config{
		frameOptions:          "DENY",
		contentTypeNosniff:    true,
		contentSecurityPolicy: "default-src 'self'",
		referrerPolicy:        "strict-origin-when-cross-origin",
		crossOriginOpener:     "same-origin",
		hstsMaxAge:            31536000,
		hstsIncludeSubdomains: true,
	}
}

// headers returns the fixed header set and the HSTS value, or "".
func (cfg *config) headers() ([][2]string, string) {
	var out [][2]string
	add := func(name, value string) {
		if value != "" {
			out = append(out, [2]string{name, value})
		}
	}
	add("X-Frame-Options", cfg.frameOptions)
	if cfg.contentTypeNosniff {
		add("X-Content-Type-Options", "nosniff")
	}
	add("Content-Security-Policy", cfg.contentSecurityPolicy)
	add("Referrer-Policy", cfg.referrerPolicy)
	add("Permissions-Policy", cfg.permissionsPolicy)
	add("Cross-Origin-Opener-Policy", cfg.crossOriginOpener)
	out = append(out, cfg.customHeaders...)

	if cfg.hstsMaxAge <= 0 {
		return out, ""
	}
	hsts := "max-age=" + strconv.Itoa(cfg.hstsMaxAge)
	if cfg.hstsIncludeSubdomains {
		hsts += "; includeSubDomains"
	}
	if cfg.hstsPreload {
		hsts += "; preload"
	}
	return out, hsts
}

// New returns an entry setting security headers before the handlers after
// it run. Strict-Transport-Security is only sent over TLS, or behind a
// proxy reporting https when WithTrustForwardedProto is set.
//
// Example:
//
//	r.Use(security.New(
//	    security.ProductionPreset(),
//	    security.WithFrameOptions("SAMEORIGIN"),
//	))
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	headers, hsts := cfg.headers()

	return func(c *router.Context) {
		h := c.Response.Header()
		for _, kv := range headers {
			h.Set(kv[0], kv[1])
		}
		if hsts != "" && isHTTPS(c.Request, cfg.trustForwardedProto) {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

func isHTTPS(req *http.Request, trustForwarded bool) bool {
	if req.TLS != nil {
		return true
	}
	return trustForwarded && req.Header.Get("X-Forwarded-Proto") == "https"
}
