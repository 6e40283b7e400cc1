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
	"bytes"
	"fmt"
	"html/template"
	"maps"
	"net/http"
	"path/filepath"
)

// RenderOptions configures the render stage.
type RenderOptions struct {
	// Template is the path of an html/template file.
	Template string `config:"template"`

	// Data is merged under the request data of [Context.Data].
	Data map[string]any `config:"data"`

	Funcs template.FuncMap `config:"-"`

	// OnError handles execution failures. Without it the failure is
	// returned from Dispatch.
	OnError ErrorHandler `config:"-"`
}

// RenderData is the value templates are executed with.
type RenderData struct {
	Request *http.Request
	Data    map[string]any
}

func renderStage(opts RenderOptions) (HandlerFunc, error) {
	if opts.Template == "" {
		return nil, ErrNoTemplate
	}
	tmpl, err := template.New(filepath.Base(opts.Template)).Funcs(opts.Funcs).ParseFiles(opts.Template)
	if err != nil {
		return nil, fmt.Errorf("render template %s: %w", opts.Template, err)
	}

	return func(c *Context) {
		data := maps.Clone(opts.Data)
		if data == nil {
			data = make(map[string]any, len(c.data))
		}
		maps.Copy(data, c.data)

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, RenderData{Request: c.Request, Data: data}); err != nil {
			err = fmt.Errorf("render %s: %w", opts.Template, err)
			if opts.OnError != nil {
				c.fail(err, opts.OnError)
				return
			}
			c.Escalate(err)
			return
		}
		if err := c.HTML(http.StatusOK, buf.String()); err != nil {
			c.Logger().Debug("failed to write rendered page", "error", err)
		}
	}, nil
}
