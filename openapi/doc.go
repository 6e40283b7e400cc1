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

// Package openapi renders the operations documented on a router as an
// OpenAPI 3.1 document and serves it, together with a Swagger UI page.
//
// Routes are documented with [router.WithAnnotations]; the router reports
// them to its [router.Catalog]:
//
//	r.With(router.WithAnnotations(router.Annotations{
//	    Summary: "Get order",
//	    Tags:    []string{"orders"},
//	    Parameters: validation.Parameters{
//	        Path: map[string]*validation.Schema{"id": {Type: "string", Required: true}},
//	    },
//	    Responses: map[int]string{200: "The order", 404: "Unknown order"},
//	})).GET("/orders/:id", getOrder)
//
//	doc := openapi.New(r.Docs().(*router.Catalog),
//	    openapi.WithTitle("Orders", "1.0.0"),
//	    openapi.WithServer("https://api.example.com", "Production"),
//	)
//	r.GET("/openapi.json", router.WrapHandler(doc.Handler()))
//	r.GET("/docs", router.WrapHandler(doc.UIHandler("/openapi.json")))
//
// The document is served with an ETag derived from its content; a request
// carrying a matching If-None-Match header gets 304.
package openapi
