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

package openapi

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"regexp"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/validation"
)

// Source lists documented operations. [router.Catalog] implements it.
type Source interface {
	Operations() []router.Operation
}

// Document builds an OpenAPI document from a Source.
type Document struct {
	source  Source
	info    Info
	servers []Server
}

// New returns a Document for the operations of src.
func New(src Source, opts ...Option) *Document {
	d := &Document{
		source: src,
		info:   Info{Title: "API", Version: "0.0.0"},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var pathParam = regexp.MustCompile(`\{([^}/]+)\}`)

// Spec builds the document from the operations recorded so far.
func (d *Document) Spec() *Spec {
	spec := &Spec{
		OpenAPI: Version,
		Info:    d.info,
		Servers: slices.Clone(d.servers),
		Paths:   make(map[string]*PathItem),
	}

	tags := make(map[string]struct{})
	for _, op := range d.source.Operations() {
		item := spec.Paths[op.Path]
		if item == nil {
			item = &PathItem{}
			spec.Paths[op.Path] = item
		}
		item.set(op.Method, buildOperation(op))
		for _, tag := range op.Annotations.Tags {
			tags[tag] = struct{}{}
		}
	}
	for _, name := range slices.Sorted(maps.Keys(tags)) {
		spec.Tags = append(spec.Tags, Tag{Name: name})
	}
	return spec
}

func (p *PathItem) set(method string, op *Operation) {
	switch method {
	case "get":
		p.Get = op
	case "put":
		p.Put = op
	case "post":
		p.Post = op
	case "delete":
		p.Delete = op
	case "options":
		p.Options = op
	case "head":
		p.Head = op
	case "patch":
		p.Patch = op
	}
}

func buildOperation(src router.Operation) *Operation {
	a := src.Annotations
	op := &Operation{
		OperationID: a.OperationID,
		Summary:     a.Summary,
		Description: a.Description,
		Tags:        slices.Clone(a.Tags),
		Deprecated:  a.Deprecated,
		Responses:   make(map[string]*Response),
	}

	declared := make(map[string]bool)
	op.Parameters = append(op.Parameters, parameters("path", a.Parameters.Path, declared)...)
	for _, m := range pathParam.FindAllStringSubmatch(src.Path, -1) {
		if !declared[m[1]] {
			op.Parameters = append(op.Parameters, Parameter{
				Name: m[1], In: "path", Required: true, Schema: &JSONSchema{Type: "string"},
			})
		}
	}
	op.Parameters = append(op.Parameters, parameters("query", a.Parameters.Query, nil)...)
	op.Parameters = append(op.Parameters, parameters("header", a.Parameters.Header, nil)...)

	if body := a.Parameters.Body; body != nil {
		op.RequestBody = &RequestBody{
			Required: body.Required,
			Content:  map[string]MediaType{"application/json": {Schema: convertSchema(body)}},
		}
	}

	for code, desc := range a.Responses {
		if desc == "" {
			desc = http.StatusText(code)
		}
		op.Responses[strconv.Itoa(code)] = &Response{Description: desc}
	}
	if len(op.Responses) == 0 {
		op.Responses["200"] = &Response{Description: http.StatusText(http.StatusOK)}
	}
	return op
}

// parameters converts the schemas of one location, sorted by name. Path
// parameters are always required.
func parameters(in string, schemas map[string]*validation.Schema, seen map[string]bool) []Parameter {
	out := make([]Parameter, 0, len(schemas))
	for _, name := range sortedKeys(schemas) {
		s := schemas[name]
		p := Parameter{Name: name, In: in, Required: in == "path", Schema: convertSchema(s)}
		if s != nil {
			p.Description = s.Description
			p.Required = p.Required || s.Required
		}
		if seen != nil {
			seen[name] = true
		}
		out = append(out, p)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.SortedFunc(maps.Keys(m), cmp.Compare[string])
}

// JSON returns the indented JSON document and its ETag.
func (d *Document) JSON() ([]byte, string, error) {
	data, err := json.MarshalIndent(d.Spec(), "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("openapi: encode json: %w", err)
	}
	return data, etag(data), nil
}

// YAML returns the YAML document and its ETag.
func (d *Document) YAML() ([]byte, string, error) {
	data, err := yaml.Marshal(d.Spec())
	if err != nil {
		return nil, "", fmt.Errorf("openapi: encode yaml: %w", err)
	}
	return data, etag(data), nil
}

func etag(data []byte) string {
	sum := sha256.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
