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

package router

import (
	"regexp"
	"slices"
	"strings"
	"sync"

	"rivaas.dev/dispatch/validation"
)

// Annotations document one operation. Declared parameters also drive the
// validation stage.
type Annotations struct {
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool

	Parameters validation.Parameters

	// Responses maps status codes to descriptions.
	Responses map[int]string
}

// DocSink receives the annotations of every documented operation.
// Methods are lower-case; paths use the "{name}" parameter form.
type DocSink interface {
	Annotate(method, path string, a Annotations)
}

// Operation is one operation kept by a [Catalog].
type Operation struct {
	Method      string
	Path        string
	Annotations Annotations
}

// Catalog is the default [DocSink]. It keeps operations in registration
// order; a repeated method and path replaces the earlier operation in place.
type Catalog struct {
	mu  sync.RWMutex
	ops []Operation
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Annotate records an operation.
func (c *Catalog) Annotate(method, path string, a Annotations) {
	c.mu.Lock()
	defer c.mu.Unlock()
	op := Operation{Method: method, Path: path, Annotations: a}
	if i := c.index(method, path); i >= 0 {
		c.ops[i] = op
		return
	}
	c.ops = append(c.ops, op)
}

// Operations returns the recorded operations.
func (c *Catalog) Operations() []Operation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.ops)
}

// Lookup returns the operation for method and path.
func (c *Catalog) Lookup(method, path string) (Operation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(strings.ToLower(method), path); i >= 0 {
		return c.ops[i], true
	}
	return Operation{}, false
}

func (c *Catalog) index(method, path string) int {
	return slices.IndexFunc(c.ops, func(op Operation) bool {
		return op.Method == method && op.Path == path
	})
}

var (
	docParam   = regexp.MustCompile(`:([^/]+)`)
	docMarkers = strings.NewReplacer("?", "", "*", "", "+", "")
)

// DocPath rewrites a path template for documentation: ":name" becomes
// "{name}" and the "?", "*" and "+" markers are removed.
func DocPath(p string) string {
	return docMarkers.Replace(docParam.ReplaceAllString(p, "{$1}"))
}
