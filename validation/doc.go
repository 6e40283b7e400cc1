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

// Package validation checks request inputs against parameter annotations.
//
// Annotations declare, per location, the parameters an operation accepts:
//
//	params := validation.Parameters{
//		Path: map[string]*validation.Schema{
//			"id": {Type: "integer", Required: true},
//		},
//		Query: map[string]*validation.Schema{
//			"tags": {Type: "array", Items: &validation.Schema{Type: "string"}},
//		},
//		Header: map[string]*validation.Schema{
//			"X-Tenant": {Type: "string", Required: true},
//		},
//		Body: &validation.Schema{
//			Type:     "object",
//			Required: true,
//			Properties: map[string]*validation.Schema{
//				"name": {Type: "string", Required: true, MinLength: validation.Int(1)},
//			},
//		},
//	}
//
// [Validator.Compile] turns the annotations into one JSON Schema covering
// the document {body, query, params, header} and compiles it with
// github.com/santhosh-tekuri/jsonschema/v6. Path, query and header values
// arrive as strings; before evaluation they are coerced to the declared
// scalar type so that "42" satisfies an integer parameter. Values that
// cannot be coerced are left as strings and reported by the schema.
//
// A failed check yields an [*Error] listing every violation:
//
//	op, err := v.Compile(params)
//	out, err := op.Validate(validation.Input{Params: p, Query: q, Header: h, Body: b})
//	var verr *validation.Error
//	if errors.As(err, &verr) {
//		// 400, code 400400, verr.Fields
//	}
package validation
