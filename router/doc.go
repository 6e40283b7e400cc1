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

// Package router dispatches HTTP requests through handler chains.
//
// A Router owns two registries: entries, cross-cutting handlers run for
// every matching request, and terminal routes, one of which answers the
// request. Dispatch selects the most recently registered route matching
// the method and path, then runs every matching entry in registration
// order followed by the route. Requests no route matches are passed on to
// the caller's handler; no entry runs for them.
//
// # Registration
//
// The verb shortcuts (GET, POST, PUT, PATCH, DELETE, Any) derive stages
// from the route configuration:
//
//   - annotated routes are reported to the documentation sink and, when
//     they declare parameters, validated before the handlers run
//   - POST, PUT and PATCH routes decode JSON, form and YAML bodies
//   - with CORS enabled, an OPTIONS route answers preflight requests and
//     the route itself writes the CORS headers
//   - GET routes get a HEAD companion running only the given handlers
//
// Upload, Static and Render attach the upload, file and template stages.
// HEAD and OPTIONS register routes as given. Use, UseAt and Param add
// entries; entries get no companions.
//
// Paths are resolved against the current prefix: "./x" and "x" are
// relative, "/x" is absolute. An empty path matches every path.
//
// Per-route options are given through With:
//
//	r.With(router.WithAnnotations(router.Annotations{
//	    Parameters: validation.Parameters{
//	        Path: map[string]*validation.Schema{"id": {Type: "integer", Required: true}},
//	    },
//	})).GET("/users/:id", getUser)
//
// # Activation
//
// The first request, or an explicit Activate, runs the BeforeStart hooks,
// compiles validators and freezes the registry. Registering afterwards
// panics with ErrFrozen. After activation the router is safe for
// concurrent use.
//
// # Failures
//
// Body, upload and validation failures are written with the router's
// error formatter ({"code": ..., "message": ...} by default) unless the
// stage has an OnError handler. Render failures without a handler are
// returned from Dispatch.
//
// # Quick Start
//
//	r := router.MustNew(router.WithCORS(cors.DefaultPolicy()))
//	r.Use(recovery.New())
//	r.GET("/users/:id", func(c *router.Context) {
//	    c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
//	})
//	r.Upload("/avatars", func(c *router.Context) {
//	    c.JSON(http.StatusCreated, c.Upload().File("avatar"))
//	})
//	log.Fatal(r.Serve(":8080"))
package router
