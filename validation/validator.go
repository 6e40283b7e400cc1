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
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cast"
	"golang.org/x/text/message"
)

// Validator compiles parameter annotations into [Operation] values.
// It is safe for concurrent use.
type Validator struct {
	cfg     *config
	printer *message.Printer
	seq     atomic.Uint64
}

// New builds a Validator.
func New(opts ...Option) (*Validator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Validator{cfg: cfg, printer: message.NewPrinter(cfg.language)}, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Validator {
	v, err := New(opts...)
	if err != nil {
		panic("validation.MustNew: " + err.Error())
	}
	return v
}

// Input is the raw request data of one validation.
type Input struct {
	Body   any
	Query  url.Values
	Params map[string]string
	Header http.Header
}

// Output holds the coerced parameter values of a successful validation.
type Output struct {
	Body   any
	Query  map[string]any
	Params map[string]any
	Header map[string]any
}

// Operation validates the inputs of one annotated route.
type Operation struct {
	schema    *jsonschema.Schema
	params    Parameters
	headers   []string // canonical names of declared headers
	maxErrors int
	redactor  Redactor
	printer   *message.Printer
}

// Compile builds the schema for params.
func (v *Validator) Compile(params Parameters) (*Operation, error) {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			string(LocationHeader): locationDocument(params.Header),
			string(LocationPath):   locationDocument(params.Path),
			string(LocationQuery):  locationDocument(params.Query),
		},
	}
	if params.Body != nil {
		doc["properties"].(map[string]any)[string(LocationBody)] = params.Body.document()
		if params.Body.Required {
			doc["required"] = []any{string(LocationBody)}
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	compiler := jsonschema.NewCompiler()
	if v.cfg.assertFormat {
		compiler.AssertFormat()
	}
	id := fmt.Sprintf("operation-%d.json", v.seq.Add(1))
	if err := compiler.AddResource(id, parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	schema, err := compiler.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	op := &Operation{
		schema:    schema,
		params:    params,
		maxErrors: v.cfg.maxErrors,
		redactor:  v.cfg.redactor,
		printer:   v.printer,
	}
	for name := range params.Header {
		op.headers = append(op.headers, http.CanonicalHeaderKey(name))
	}
	slices.Sort(op.headers)

	return op, nil
}

// MustCompile is like Compile but panics on error.
func (v *Validator) MustCompile(params Parameters) *Operation {
	op, err := v.Compile(params)
	if err != nil {
		panic("validation.MustCompile: " + err.Error())
	}
	return op
}

func locationDocument(params map[string]*Schema) map[string]any {
	props, required := objectProperties(params)
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Validate coerces in to the declared types and evaluates the schema.
// A verdict against the input is returned as [*Error].
func (o *Operation) Validate(in Input) (*Output, error) {
	out := &Output{
		Body:   in.Body,
		Query:  coerceQuery(in.Query, o.params.Query),
		Params: coerceParams(in.Params, o.params.Path),
		Header: o.coerceHeader(in.Header),
	}

	doc := map[string]any{
		string(LocationHeader): out.Header,
		string(LocationPath):   out.Params,
		string(LocationQuery):  out.Query,
	}
	if in.Body != nil {
		doc[string(LocationBody)] = in.Body
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, &Error{Fields: []FieldError{{Code: "marshal_error", Message: err.Error()}}}
	}
	data, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &Error{Fields: []FieldError{{Code: "unmarshal_error", Message: err.Error()}}}
	}

	if err := o.schema.Validate(data); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			return nil, o.formatErrors(verr, data)
		}
		return nil, &Error{Fields: []FieldError{{Code: "schema_validation_error", Message: err.Error()}}}
	}

	return out, nil
}

func (o *Operation) coerceHeader(h http.Header) map[string]any {
	out := make(map[string]any, len(o.headers))
	for name, schema := range o.params.Header {
		canonical := http.CanonicalHeaderKey(name)
		values := h.Values(canonical)
		if len(values) == 0 {
			continue
		}
		// Header values are keyed by the declared name.
		out[name] = coerceValues(values, schema)
	}
	return out
}

func coerceParams(in map[string]string, declared map[string]*Schema) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = coerce(v, declared[k])
	}
	return out
}

func coerceQuery(in url.Values, declared map[string]*Schema) map[string]any {
	out := make(map[string]any, len(in))
	for k, values := range in {
		out[k] = coerceValues(values, declared[k])
	}
	return out
}

// coerceValues maps repeated values to an array when the parameter is an
// array or was sent more than once.
func coerceValues(values []string, schema *Schema) any {
	if schema != nil && schema.Type == "array" {
		if len(values) == 1 {
			values = splitList(values[0])
		}
		items := make([]any, len(values))
		for i, v := range values {
			items[i] = coerce(v, schema.Items)
		}
		return items
	}
	if len(values) == 1 {
		return coerce(values[0], schema)
	}
	items := make([]any, len(values))
	for i, v := range values {
		items[i] = coerce(v, schema)
	}
	return items
}

func splitList(v string) []string {
	if v == "" {
		return []string{}
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// coerce converts a string to the scalar type of schema, keeping the
// original on failure so the schema reports the mismatch.
func coerce(v string, schema *Schema) any {
	if schema == nil {
		return v
	}
	switch schema.Type {
	case "integer":
		if n, err := cast.ToInt64E(v); err == nil {
			return n
		}
	case "number":
		if f, err := cast.ToFloat64E(v); err == nil {
			return f
		}
	case "boolean":
		if b, err := cast.ToBoolE(v); err == nil {
			return b
		}
	}
	return v
}
