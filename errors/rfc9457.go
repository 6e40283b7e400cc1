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

package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const problemContentType = "application/problem+json; charset=utf-8"

// ProblemType names a failure family in problem details.
type ProblemType struct {
	// Slug is joined to the base URL to form the "type" member.
	Slug string

	// Title replaces the status text in the "title" member when set.
	Title string
}

// RFC9457 writes failures as RFC 9457 problem details. The fault code
// selects the problem type; the code, the [ErrorDetails] of the error and
// an error id are added as extension members.
//
// Example:
//
//	f := errors.NewRFC9457("https://dispatch.example/problems").
//	    WithProblemType(400500, "malformed-body", "Malformed request body")
//	r := router.MustNew(router.WithFormatter(f))
//
//	// {"type":"https://dispatch.example/problems/malformed-body",
//	//  "title":"Malformed request body","status":400,
//	//  "detail":"Can't parse request body","instance":"/orders",
//	//  "code":400500,"error_id":"0199..."}
type RFC9457 struct {
	// BaseURL prefixes problem type slugs. Without it the slug alone is
	// the type.
	BaseURL string

	// Types maps fault codes to problem types. A code with no entry uses
	// its decimal form as the slug. Errors without a code are "about:blank".
	Types map[int]ProblemType

	// StatusResolver overrides the status taken from [ErrorType].
	StatusResolver func(err error) int

	// HideInternal drops the detail of errors that declare no status.
	HideInternal bool

	// ErrorID returns the "error_id" member; nil leaves it out.
	ErrorID func(req *http.Request) string
}

// NewRFC9457 returns a problem details formatter with UUIDv7 error ids.
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Types:   make(map[int]ProblemType),
		ErrorID: newErrorID,
	}
}

// WithProblemType registers the problem type of a fault code and returns f.
func (f *RFC9457) WithProblemType(code int, slug, title string) *RFC9457 {
	if f.Types == nil {
		f.Types = make(map[int]ProblemType)
	}
	f.Types[code] = ProblemType{Slug: slug, Title: title}
	return f
}

// Format implements [Formatter].
func (f *RFC9457) Format(req *http.Request, err error) Response {
	status := resolveStatus(f.StatusResolver, err)
	p := ProblemDetail{
		Type:       "about:blank",
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     err.Error(),
		Instance:   req.URL.Path,
		Extensions: make(map[string]any),
	}

	var typed ErrorType
	if f.HideInternal && !errors.As(err, &typed) {
		p.Detail = ""
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		code := coded.FaultCode()
		p.Extensions["code"] = code
		pt, ok := f.Types[code]
		if !ok {
			pt.Slug = strconv.Itoa(code)
		}
		p.Type = f.typeURI(pt.Slug)
		if pt.Title != "" {
			p.Title = pt.Title
		}
	}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		p.Extensions["errors"] = detailed.Details()
	}

	if f.ErrorID != nil {
		if id := f.ErrorID(req); id != "" {
			p.Extensions["error_id"] = id
		}
	}

	return Response{
		Status:      status,
		ContentType: problemContentType,
		Body:        p,
	}
}

func (f *RFC9457) typeURI(slug string) string {
	if f.BaseURL == "" {
		return slug
	}
	return f.BaseURL + "/" + slug
}

func newErrorID(*http.Request) string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ProblemDetail is the body written by [RFC9457]. Extensions are encoded
// as top-level members and cannot replace the standard ones.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"-"`
}

var reservedMembers = map[string]bool{
	"type": true, "title": true, "status": true, "detail": true, "instance": true,
}

// MarshalJSON implements json.Marshaler.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Extensions)+5)
	for k, v := range p.Extensions {
		if !reservedMembers[k] {
			m[k] = v
		}
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	return json.Marshal(m)
}
