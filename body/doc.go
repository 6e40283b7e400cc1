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

// Package body decodes request payloads into generic values.
//
// A [Decoder] recognizes JSON, URL-encoded form and YAML payloads by their
// Content-Type, enforces per-format size limits and transcodes non UTF-8
// charsets before parsing. Requests whose Content-Type matches none of the
// configured formats are not decoded at all; [Decoder.Decode] reports
// [KindNone] and the caller passes them on untouched.
//
// Basic usage:
//
//	d := body.MustNew(body.Config{JSONLimit: 1 << 20})
//	res, err := d.Decode(req)
//	if err != nil {
//	    var fault *body.Error
//	    errors.As(err, &fault) // 400, code 400500
//	}
//	payload := res.Value
package body
