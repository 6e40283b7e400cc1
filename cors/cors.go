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
	"net/http"
	"strconv"
	"strings"
)

// Header names written by [Policy.Evaluate].
const (
	HeaderAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderExposeHeaders    = "Access-Control-Expose-Headers"
	HeaderMaxAge           = "Access-Control-Max-Age"
	HeaderRequestHeaders   = "Access-Control-Request-Headers"
	HeaderVary             = "Vary"
)

// DefaultMethods is the method list advertised when none is configured.
var DefaultMethods = []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"}

// Policy describes how cross-origin requests are answered.
// The zero value is not useful; start from [New] or [DefaultPolicy].
type Policy struct {
	// Origin decides the Access-Control-Allow-Origin value.
	Origin OriginRule

	// Methods is advertised on preflight responses.
	Methods []string

	// AllowedHeaders is advertised on preflight responses.
	// When nil, the request's Access-Control-Request-Headers are echoed.
	AllowedHeaders []string

	// ExposedHeaders lists response headers readable by the client.
	ExposedHeaders []string

	// Credentials enables Access-Control-Allow-Credentials.
	Credentials bool

	// MaxAge is the preflight cache lifetime in seconds; 0 leaves it unset.
	MaxAge int

	// OptionsSuccessStatus is the status of a successful preflight.
	OptionsSuccessStatus int
}

// Result is the outcome of evaluating a request against a policy.
type Result struct {
	// Header holds the headers to add to the response.
	Header http.Header

	// Status is the preflight status; zero for non-preflight requests.
	Status int

	// Preflight reports whether the request was an OPTIONS request.
	Preflight bool
}

// Option defines functional options for policy configuration.
type Option func(*Policy)

// DefaultPolicy returns the permissive default policy: any origin, the
// default methods, echoed request headers and a 204 preflight status.
func DefaultPolicy() Policy {
	return Policy{
		Origin:               AnyOrigin(),
		Methods:              append([]string(nil), DefaultMethods...),
		OptionsSuccessStatus: http.StatusNoContent,
	}
}

// New returns [DefaultPolicy] with opts applied.
//
// Example:
//
//	policy := cors.New(
//	    cors.WithAllowedOrigins("https://app.example.com", "https://admin.example.com"),
//	    cors.WithAllowCredentials(true),
//	    cors.WithMaxAge(600),
//	)
func New(opts ...Option) Policy {
	p := DefaultPolicy()
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Evaluate computes the CORS headers for one request.
//
// A preflight (OPTIONS) request yields the origin, credentials, methods,
// allowed headers, max age and exposed headers, plus Content-Length: 0 and
// the configured success status. Any other request yields only the origin,
// credentials and exposed headers.
func (p Policy) Evaluate(method, origin string, requestHeader http.Header) Result {
	h := make(http.Header)
	p.writeOrigin(h, origin)
	if p.Credentials {
		h.Set(HeaderAllowCredentials, "true")
	}

	if method != http.MethodOptions {
		p.writeExposed(h)
		return Result{Header: h}
	}

	methods := p.Methods
	if methods == nil {
		methods = DefaultMethods
	}
	if len(methods) > 0 {
		h.Set(HeaderAllowMethods, strings.Join(methods, ","))
	}

	if p.AllowedHeaders == nil {
		addVary(h, HeaderRequestHeaders)
		if requested := requestHeader.Get(HeaderRequestHeaders); requested != "" {
			h.Set(HeaderAllowHeaders, requested)
		}
	} else if len(p.AllowedHeaders) > 0 {
		h.Set(HeaderAllowHeaders, strings.Join(p.AllowedHeaders, ","))
	}

	if p.MaxAge > 0 {
		h.Set(HeaderMaxAge, strconv.Itoa(p.MaxAge))
	}
	p.writeExposed(h)
	h.Set("Content-Length", "0")

	status := p.OptionsSuccessStatus
	if status == 0 {
		status = http.StatusNoContent
	}

	return Result{Header: h, Status: status, Preflight: true}
}

func (p Policy) writeOrigin(h http.Header, origin string) {
	switch p.Origin.kind {
	case kindAny:
		h.Set(HeaderAllowOrigin, "*")
	case kindExact:
		h.Set(HeaderAllowOrigin, p.Origin.exact)
		addVary(h, "Origin")
	default:
		if p.Origin.Allows(origin) {
			h.Set(HeaderAllowOrigin, origin)
		}
		addVary(h, "Origin")
	}
}

func (p Policy) writeExposed(h http.Header) {
	if len(p.ExposedHeaders) > 0 {
		h.Set(HeaderExposeHeaders, strings.Join(p.ExposedHeaders, ","))
	}
}

// addVary appends field to the Vary header unless it is already listed.
func addVary(h http.Header, field string) {
	current := h.Get(HeaderVary)
	if current == "*" {
		return
	}
	if field == "*" {
		h.Set(HeaderVary, "*")
		return
	}
	for _, v := range strings.Split(current, ",") {
		if strings.EqualFold(strings.TrimSpace(v), field) {
			return
		}
	}
	if current == "" {
		h.Set(HeaderVary, field)
		return
	}
	h.Set(HeaderVary, current+", "+field)
}

// Apply copies the result headers onto dst, merging Vary.
func (r Result) Apply(dst http.Header) {
	for key, values := range r.Header {
		if key == HeaderVary {
			for _, v := range values {
				for _, field := range strings.Split(v, ",") {
					addVary(dst, strings.TrimSpace(field))
				}
			}
			continue
		}
		dst[key] = append([]string(nil), values...)
	}
}
