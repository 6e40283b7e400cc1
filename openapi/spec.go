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

import "rivaas.dev/dispatch/validation"

// Version is the OpenAPI version of generated documents.
const Version = "3.1.0"

// Spec is the root of an OpenAPI document.
type Spec struct {
	OpenAPI string               `json:"openapi" yaml:"openapi"`
	Info    Info                 `json:"info" yaml:"info"`
	Servers []Server             `json:"servers,omitempty" yaml:"servers,omitempty"`
	Paths   map[string]*PathItem `json:"paths" yaml:"paths"`
	Tags    []Tag                `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Info is the API metadata.
type Info struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version" yaml:"version"`
}

// Server is a base URL the API is served from.
type Server struct {
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Tag groups operations.
type Tag struct {
	Name string `json:"name" yaml:"name"`
}

// PathItem holds the operations of one path.
type PathItem struct {
	Get     *Operation `json:"get,omitempty" yaml:"get,omitempty"`
	Put     *Operation `json:"put,omitempty" yaml:"put,omitempty"`
	Post    *Operation `json:"post,omitempty" yaml:"post,omitempty"`
	Delete  *Operation `json:"delete,omitempty" yaml:"delete,omitempty"`
	Options *Operation `json:"options,omitempty" yaml:"options,omitempty"`
	Head    *Operation `json:"head,omitempty" yaml:"head,omitempty"`
	Patch   *Operation `json:"patch,omitempty" yaml:"patch,omitempty"`
}

// Operation describes one method on one path.
type Operation struct {
	OperationID string               `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Summary     string               `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string             `json:"tags,omitempty" yaml:"tags,omitempty"`
	Deprecated  bool                 `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Parameters  []Parameter          `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody         `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   map[string]*Response `json:"responses" yaml:"responses"`
}

// Parameter is a path, query or header parameter.
type Parameter struct {
	Name        string      `json:"name" yaml:"name"`
	In          string      `json:"in" yaml:"in"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Schema      *JSONSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// RequestBody describes the accepted body.
type RequestBody struct {
	Required bool                 `json:"required,omitempty" yaml:"required,omitempty"`
	Content  map[string]MediaType `json:"content" yaml:"content"`
}

// MediaType binds a schema to a content type.
type MediaType struct {
	Schema *JSONSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Response describes one status code.
type Response struct {
	Description string `json:"description" yaml:"description"`
}

// JSONSchema is the document form of a [validation.Schema]. Required
// properties are listed on the object rather than flagged on each property.
type JSONSchema struct {
	Type                 string                 `json:"type,omitempty" yaml:"type,omitempty"`
	Description          string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Format               string                 `json:"format,omitempty" yaml:"format,omitempty"`
	Pattern              string                 `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Enum                 []any                  `json:"enum,omitempty" yaml:"enum,omitempty"`
	Default              any                    `json:"default,omitempty" yaml:"default,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum              *float64               `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	MinLength            *int                   `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength            *int                   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	MinItems             *int                   `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems             *int                   `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty" yaml:"items,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required             []string               `json:"required,omitempty" yaml:"required,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
}

func convertSchema(s *validation.Schema) *JSONSchema {
	if s == nil {
		return nil
	}
	out := &JSONSchema{
		Type:                 s.Type,
		Description:          s.Description,
		Format:               s.Format,
		Pattern:              s.Pattern,
		Enum:                 s.Enum,
		Default:              s.Default,
		Minimum:              s.Minimum,
		Maximum:              s.Maximum,
		MinLength:            s.MinLength,
		MaxLength:            s.MaxLength,
		MinItems:             s.MinItems,
		MaxItems:             s.MaxItems,
		Items:                convertSchema(s.Items),
		AdditionalProperties: s.AdditionalProperties,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*JSONSchema, len(s.Properties))
		for _, name := range sortedKeys(s.Properties) {
			prop := s.Properties[name]
			out.Properties[name] = convertSchema(prop)
			if prop != nil && prop.Required {
				out.Required = append(out.Required, name)
			}
		}
	}
	return out
}
