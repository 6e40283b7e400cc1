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

// Location is where a parameter is read from.
type Location string

// Parameter locations, also the property names of the validated document.
const (
	LocationHeader Location = "header"
	LocationPath   Location = "params"
	LocationQuery  Location = "query"
	LocationBody   Location = "body"
)

// Schema is the subset of JSON Schema accepted in annotations.
type Schema struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`

	// Required marks a parameter or object property as mandatory. For the
	// body schema itself it makes the body mandatory.
	Required bool `json:"-"`

	Format    string   `json:"format,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Enum      []any    `json:"enum,omitempty"`
	Default   any      `json:"default,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	MinItems  *int     `json:"minItems,omitempty"`
	MaxItems  *int     `json:"maxItems,omitempty"`

	Items                *Schema            `json:"items,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
}

// Parameters groups annotated parameters by location. Header names are
// matched case-insensitively.
type Parameters struct {
	Header map[string]*Schema `json:"header,omitempty"`
	Path   map[string]*Schema `json:"path,omitempty"`
	Query  map[string]*Schema `json:"query,omitempty"`
	Body   *Schema            `json:"body,omitempty"`
}

// Empty reports whether no parameter is declared.
func (p Parameters) Empty() bool {
	return len(p.Header) == 0 && len(p.Path) == 0 && len(p.Query) == 0 && p.Body == nil
}

// Int returns a pointer to v, for the length bounds of a [Schema].
func Int(v int) *int { return &v }

// Float returns a pointer to v, for the numeric bounds of a [Schema].
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// document renders s as a JSON Schema value.
func (s *Schema) document() map[string]any {
	doc := make(map[string]any)
	if s.Type != "" {
		doc["type"] = s.Type
	}
	if s.Description != "" {
		doc["description"] = s.Description
	}
	if s.Format != "" {
		doc["format"] = s.Format
	}
	if s.Pattern != "" {
		doc["pattern"] = s.Pattern
	}
	if len(s.Enum) > 0 {
		doc["enum"] = s.Enum
	}
	if s.Default != nil {
		doc["default"] = s.Default
	}
	setNumber(doc, "minimum", s.Minimum)
	setNumber(doc, "maximum", s.Maximum)
	setInt(doc, "minLength", s.MinLength)
	setInt(doc, "maxLength", s.MaxLength)
	setInt(doc, "minItems", s.MinItems)
	setInt(doc, "maxItems", s.MaxItems)
	if s.Items != nil {
		doc["items"] = s.Items.document()
	}
	if len(s.Properties) > 0 {
		doc["properties"], doc["required"] = objectProperties(s.Properties)
	}
	if s.AdditionalProperties != nil {
		doc["additionalProperties"] = *s.AdditionalProperties
	}
	return doc
}

// objectProperties renders a property set and the names of its required members.
func objectProperties(props map[string]*Schema) (map[string]any, []any) {
	out := make(map[string]any, len(props))
	required := []any{}
	for name, p := range props {
		if p == nil {
			p = &Schema{}
		}
		out[name] = p.document()
		if p.Required {
			required = append(required, name)
		}
	}
	return out, required
}

func setNumber(doc map[string]any, key string, v *float64) {
	if v != nil {
		doc[key] = *v
	}
}

func setInt(doc map[string]any, key string, v *int) {
	if v != nil {
		doc[key] = *v
	}
}
