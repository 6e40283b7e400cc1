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
	"encoding/json"
	"html/template"
	"net/http"
)

// Handler serves the JSON document.
func (d *Document) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, tag, err := d.JSON()
		writeDocument(w, req, "application/json", data, tag, err)
	})
}

// YAMLHandler serves the YAML document.
func (d *Document) YAMLHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, tag, err := d.YAML()
		writeDocument(w, req, "application/yaml", data, tag, err)
	})
}

func writeDocument(w http.ResponseWriter, req *http.Request, contentType string, data []byte, tag string, err error) {
	if err != nil {
		http.Error(w, "failed to generate OpenAPI document", http.StatusInternalServerError)
		return
	}
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := req.Header.Get("If-None-Match"); match == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	if req.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

var uiPage = template.Must(template.New("ui").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{.Title}}</title>
	<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.30.2/swagger-ui.css" />
</head>
<body>
	<div id="swagger-ui"></div>
	<script src="https://unpkg.com/swagger-ui-dist@5.30.2/swagger-ui-bundle.js" crossorigin></script>
	<script>
		window.onload = () => {
			window.ui = SwaggerUIBundle({{.Config}});
		};
	</script>
</body>
</html>
`))

// UIHandler serves a Swagger UI page loading the document from specURL.
func (d *Document) UIHandler(specURL string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		cfg, err := json.Marshal(map[string]any{
			"url":         specURL,
			"dom_id":      "#swagger-ui",
			"deepLinking": true,
		})
		if err != nil {
			http.Error(w, "failed to render documentation page", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = uiPage.Execute(w, struct {
			Title  string
			Config template.JS
		}{Title: d.info.Title, Config: template.JS(cfg)})
	})
}
