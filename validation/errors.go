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
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// FaultCode is the code reported in failure responses for rejected inputs.
const FaultCode = 400400

// ErrValidation is a sentinel error for validation failures.
// Use errors.Is(err, ErrValidation) to check if an error is a validation error.
var ErrValidation = errors.New("validation")

// ErrInvalidSchema is returned by [Validator.Compile] for annotations that
// do not form a valid JSON Schema.
var ErrInvalidSchema = errors.New("invalid parameter schema")

// FieldError is a single violation.
type FieldError struct {
	Path    string         `json:"path"`           // Dotted instance path, e.g. "query.limit"
	Code    string         `json:"code"`           // Keyword code, e.g. "schema.required"
	Message string         `json:"message"`        // Human-readable message
	Meta    map[string]any `json:"meta,omitempty"` // Offending value, keyword location
}

// Error returns "path: message", or just the message for the document root.
func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns [ErrValidation].
func (e FieldError) Unwrap() error {
	return ErrValidation
}

// Error is a rejected input with one or more violations.
type Error struct {
	Fields    []FieldError `json:"errors"`
	Truncated bool         `json:"truncated,omitempty"`
}

// Error returns a formatted error message.
func (v *Error) Error() string {
	if len(v.Fields) == 0 {
		return "validation failed"
	}
	if len(v.Fields) == 1 {
		return v.Fields[0].Error()
	}

	suffix := ""
	if v.Truncated {
		suffix = " (truncated)"
	}

	msgs := make([]string, 0, len(v.Fields))
	for _, err := range v.Fields {
		msgs = append(msgs, err.Error())
	}

	return fmt.Sprintf("validation failed: %s%s", strings.Join(msgs, "; "), suffix)
}

// Unwrap returns [ErrValidation].
func (v *Error) Unwrap() error {
	return ErrValidation
}

// HTTPStatus implements rivaas.dev/dispatch/errors.ErrorType.
func (v *Error) HTTPStatus() int {
	return http.StatusBadRequest
}

// FaultCode implements rivaas.dev/dispatch/errors.ErrorCode.
func (v *Error) FaultCode() int {
	return FaultCode
}

// Details implements rivaas.dev/dispatch/errors.ErrorDetails.
func (v *Error) Details() any {
	return v.Fields
}

// Add appends a violation.
func (v *Error) Add(path, code, message string, meta map[string]any) {
	v.Fields = append(v.Fields, FieldError{
		Path:    path,
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// HasField reports whether a violation was recorded for path.
func (v *Error) HasField(path string) bool {
	for _, f := range v.Fields {
		if f.Path == path {
			return true
		}
	}
	return false
}

// Sort orders violations by path, then code.
func (v *Error) Sort() {
	sort.SliceStable(v.Fields, func(i, j int) bool {
		if v.Fields[i].Path != v.Fields[j].Path {
			return v.Fields[i].Path < v.Fields[j].Path
		}
		return v.Fields[i].Code < v.Fields[j].Code
	})
}

// formatErrors flattens the ValidationError tree into an [*Error].
func (o *Operation) formatErrors(verr *jsonschema.ValidationError, data any) error {
	result := &Error{}
	o.collectErrors(verr, data, result)
	result.Sort()
	return result
}

func (o *Operation) collectErrors(verr *jsonschema.ValidationError, data any, result *Error) {
	if verr == nil || result.Truncated {
		return
	}

	if len(verr.Causes) == 0 {
		if o.maxErrors > 0 && len(result.Fields) >= o.maxErrors {
			result.Truncated = true
			return
		}

		path := strings.Join(verr.InstanceLocation, ".")
		keyword := "schema"
		if kp := verr.ErrorKind.KeywordPath(); len(kp) > 0 {
			keyword = kp[len(kp)-1]
		}

		meta := map[string]any{"keyword": keyword}
		if value, ok := lookup(data, verr.InstanceLocation); ok && keyword != "required" {
			if o.redactor != nil && o.redactor(path) {
				value = "[REDACTED]"
			}
			meta["value"] = value
		}

		result.Add(path, "schema."+keyword, verr.ErrorKind.LocalizedString(o.printer), meta)
		return
	}

	for _, cause := range verr.Causes {
		o.collectErrors(cause, data, result)
	}
}

// lookup walks the instance document along a JSON pointer split into tokens.
func lookup(data any, location []string) (any, bool) {
	cur := data
	for _, token := range location {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[token]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(token)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
