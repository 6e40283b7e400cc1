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

package upload

// Result is the outcome of a successful [Uploader.Parse].
type Result struct {
	// Fields holds the non-file parts; a repeated name keeps the last value.
	Fields map[string]string

	// Files holds the persisted files per field, in part order.
	Files map[string][]*File

	multiple  bool
	rollbacks []func()
}

func newResult(multiple bool) *Result {
	return &Result{
		Fields:   make(map[string]string),
		Files:    make(map[string][]*File),
		multiple: multiple,
	}
}

// reserve appends an empty slot for the next file of field and returns its index.
func (r *Result) reserve(field string) int {
	r.Files[field] = append(r.Files[field], nil)
	return len(r.Files[field]) - 1
}

// File returns the first file sent in field, or nil.
func (r *Result) File(field string) *File {
	if files := r.Files[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// Field returns the value of a non-file field.
func (r *Result) Field(name string) (string, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Combined merges fields and files into one map. A file field holds a
// *File, or a []*File when multiple files per field are allowed.
func (r *Result) Combined() map[string]any {
	out := make(map[string]any, len(r.Fields)+len(r.Files))
	for k, v := range r.Fields {
		out[k] = v
	}
	for k, files := range r.Files {
		if r.multiple {
			out[k] = files
			continue
		}
		if len(files) > 0 {
			out[k] = files[0]
		}
	}
	return out
}

// Rollback removes every file stored for the result. Later calls do nothing.
func (r *Result) Rollback() {
	fns := r.rollbacks
	r.rollbacks = nil
	for _, fn := range fns {
		fn()
	}
}
