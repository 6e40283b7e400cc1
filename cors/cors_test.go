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

//go:build !integration

package cors

import (
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy_Preflight(t *testing.T) {
	t.Parallel()

	reqHeader := http.Header{}
	reqHeader.Set(HeaderRequestHeaders, "X-Token, Content-Type")

	res := DefaultPolicy().Evaluate(http.MethodOptions, "https://example.com", reqHeader)

	assert.True(t, res.Preflight)
	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.Equal(t, "*", res.Header.Get(HeaderAllowOrigin))
	assert.Equal(t, "GET,HEAD,PUT,PATCH,POST,DELETE", res.Header.Get(HeaderAllowMethods))
	assert.Equal(t, "X-Token, Content-Type", res.Header.Get(HeaderAllowHeaders))
	assert.Equal(t, HeaderRequestHeaders, res.Header.Get(HeaderVary))
	assert.Equal(t, "0", res.Header.Get("Content-Length"))
	assert.Empty(t, res.Header.Get(HeaderMaxAge))
	assert.Empty(t, res.Header.Get(HeaderAllowCredentials))
	assert.Empty(t, res.Header.Get(HeaderExposeHeaders))
}

func TestDefaultPolicy_ActualRequest(t *testing.T) {
	t.Parallel()

	p := New(WithExposedHeaders("X-Total", "X-Page"), WithAllowCredentials(true), WithMaxAge(600))
	res := p.Evaluate(http.MethodGet, "https://example.com", http.Header{})

	assert.False(t, res.Preflight)
	assert.Zero(t, res.Status)
	assert.Equal(t, "*", res.Header.Get(HeaderAllowOrigin))
	assert.Equal(t, "true", res.Header.Get(HeaderAllowCredentials))
	assert.Equal(t, "X-Total,X-Page", res.Header.Get(HeaderExposeHeaders))
	// Preflight-only headers are absent.
	assert.Empty(t, res.Header.Get(HeaderAllowMethods))
	assert.Empty(t, res.Header.Get(HeaderMaxAge))
	assert.Empty(t, res.Header.Get("Content-Length"))
}

func TestPolicy_OriginRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rule       OriginRule
		origin     string
		wantOrigin string
		wantVary   string
	}{
		{name: "wildcard", rule: AnyOrigin(), origin: "https://a.com", wantOrigin: "*"},
		{name: "exact always answers itself", rule: ExactOrigin("https://a.com"), origin: "https://b.com", wantOrigin: "https://a.com", wantVary: "Origin"},
		{name: "exact star is wildcard", rule: ExactOrigin("*"), origin: "https://b.com", wantOrigin: "*"},
		{
			name:       "pattern reflects allowed origin",
			rule:       PatternOrigin(regexp.MustCompile(`\.example\.com$`)),
			origin:     "https://app.example.com",
			wantOrigin: "https://app.example.com",
			wantVary:   "Origin",
		},
		{
			name:     "pattern rejects other origin",
			rule:     PatternOrigin(regexp.MustCompile(`\.example\.com$`)),
			origin:   "https://evil.com",
			wantVary: "Origin",
		},
		{
			name:       "list first match",
			rule:       OriginList(ExactOrigin("https://a.com"), PatternOrigin(regexp.MustCompile(`^https://b`))),
			origin:     "https://b.com",
			wantOrigin: "https://b.com",
			wantVary:   "Origin",
		},
		{
			name:     "list no match",
			rule:     OriginList(ExactOrigin("https://a.com")),
			origin:   "https://c.com",
			wantVary: "Origin",
		},
		{
			name:       "func",
			rule:       OriginFunc(func(o string) bool { return strings.HasSuffix(o, ".dev") }),
			origin:     "https://rivaas.dev",
			wantOrigin: "https://rivaas.dev",
			wantVary:   "Origin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := New(WithOriginRule(tt.rule))
			res := p.Evaluate(http.MethodGet, tt.origin, http.Header{})
			assert.Equal(t, tt.wantOrigin, res.Header.Get(HeaderAllowOrigin))
			assert.Equal(t, tt.wantVary, res.Header.Get(HeaderVary))
		})
	}
}

func TestPolicy_ExplicitAllowedHeaders(t *testing.T) {
	t.Parallel()

	reqHeader := http.Header{}
	reqHeader.Set(HeaderRequestHeaders, "X-Ignored")

	p := New(
		WithAllowedOrigins("https://a.com"),
		WithAllowedHeaders("Content-Type", "Authorization"),
		WithAllowedMethods("GET", "POST"),
		WithOptionsSuccessStatus(http.StatusOK),
		WithMaxAge(3600),
	)
	res := p.Evaluate(http.MethodOptions, "https://a.com", reqHeader)

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "https://a.com", res.Header.Get(HeaderAllowOrigin))
	assert.Equal(t, "Content-Type,Authorization", res.Header.Get(HeaderAllowHeaders))
	assert.Equal(t, "GET,POST", res.Header.Get(HeaderAllowMethods))
	assert.Equal(t, "3600", res.Header.Get(HeaderMaxAge))
	assert.Equal(t, "Origin", res.Header.Get(HeaderVary))
}

func TestParseOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		origin  string
		allowed bool
	}{
		{in: "*", origin: "https://x.com", allowed: true},
		{in: "", origin: "https://x.com", allowed: true},
		{in: "https://x.com", origin: "https://x.com", allowed: true},
		{in: "https://x.com", origin: "https://y.com", allowed: false},
		{in: `/^https://.*\.x\.com$/`, origin: "https://a.x.com", allowed: true},
		{in: "https://x.com, https://y.com", origin: "https://y.com", allowed: true},
		{in: "https://x.com, https://y.com", origin: "https://z.com", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.in+"/"+tt.origin, func(t *testing.T) {
			t.Parallel()
			rule, err := ParseOrigin(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, rule.Allows(tt.origin))
		})
	}

	_, err := ParseOrigin("/(/")
	assert.Error(t, err)
}

func TestResult_ApplyMergesVary(t *testing.T) {
	t.Parallel()

	dst := http.Header{}
	dst.Set(HeaderVary, "Accept-Encoding")

	res := New(WithOrigin("https://a.com")).Evaluate(http.MethodOptions, "https://a.com", http.Header{})
	res.Apply(dst)

	assert.Equal(t, "Accept-Encoding, Origin, Access-Control-Request-Headers", dst.Get(HeaderVary))
	assert.Equal(t, "https://a.com", dst.Get(HeaderAllowOrigin))
}
