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

//go:build !integration

package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/cors"
	"rivaas.dev/dispatch/validation"
)

func noop(*Context) {}

// routesFor returns the registered routes answering method at path.
func routesFor(r *Router, method, path string) []*Route {
	var out []*Route
	for _, rt := range r.Routes() {
		if rt.HasMethod(method) && rt.Path() == path {
			out = append(out, rt)
		}
	}
	return out
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		path   string
		want   string
	}{
		{name: "default prefix", prefix: "/", path: "users", want: "/users"},
		{name: "relative", prefix: "/api", path: "users", want: "/api/users"},
		{name: "dot relative", prefix: "/api", path: "./users", want: "/api/users"},
		{name: "absolute", prefix: "/api", path: "/users", want: "/users"},
		{name: "prefix with slash", prefix: "/api/", path: "users", want: "/api/users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := MustNew(WithPrefix(tt.prefix))
			assert.Equal(t, tt.want, r.resolvePath(tt.path))
		})
	}
}

func TestPrefix_Chains(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Prefix("api").GET("users", noop)
	r.Prefix("./v2").GET("users", noop)

	assert.Equal(t, "/api/v2", r.CurrentPrefix())
	assert.Len(t, routesFor(r, http.MethodGet, "/api/users"), 1)
	assert.Len(t, routesFor(r, http.MethodGet, "/api/v2/users"), 1)
}

func TestDefine_GETImpliesHEAD(t *testing.T) {
	t.Parallel()

	var trace []string
	r := MustNew()
	r.Use(record(&trace, "entry"))
	r.POST("/things", noop)
	r.GET("/things", record(&trace, "get"))

	heads := routesFor(r, http.MethodHead, "/things")
	require.Len(t, heads, 1)
	assert.Equal(t, TypeHeader, heads[0].Type())
	assert.Equal(t, 1, heads[0].Len(), "companion runs only the given handlers")

	w := serve(r, http.MethodHead, "/things")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"entry", "get"}, trace)
}

func TestDefine_AnyWithHeadGetsNoCompanion(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Any("/all", noop)

	assert.Len(t, routesFor(r, http.MethodHead, "/all"), 1)
	assert.Len(t, r.Routes(), 1)
}

func TestUse_AddsHEADWithoutCompanion(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.With(WithRouteMethods("get")).Use(noop)
	r.With(WithRouteMethods(http.MethodPost)).Use(noop)

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, []string{http.MethodHead, http.MethodGet}, entries[0].Methods())
	assert.Equal(t, []string{http.MethodPost}, entries[1].Methods())
	assert.Empty(t, entries[0].Path())
	assert.Empty(t, r.Routes())
}

func TestDefine_BodyStageForWriteMethods(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("/a", noop)
	r.POST("/a", noop)
	r.PUT("/a", noop)
	r.PATCH("/a", noop)
	r.DELETE("/a", noop)

	lens := map[string]int{}
	for _, rt := range r.Routes() {
		if rt.Type() == TypeDefine {
			lens[rt.Methods()[0]] = rt.Len()
		}
	}
	assert.Equal(t, map[string]int{
		http.MethodGet:    1,
		http.MethodPost:   2,
		http.MethodPut:    2,
		http.MethodPatch:  2,
		http.MethodDelete: 1,
	}, lens)
}

func TestDefine_CORSCompanion(t *testing.T) {
	t.Parallel()

	t.Run("router default", func(t *testing.T) {
		t.Parallel()
		r := MustNew(WithCORS(cors.DefaultPolicy()))
		r.POST("/orders", noop)

		options := routesFor(r, http.MethodOptions, "/orders")
		require.Len(t, options, 1)
		assert.Equal(t, TypeOption, options[0].Type())

		post := routesFor(r, http.MethodPost, "/orders")
		require.Len(t, post, 1)
		assert.Equal(t, 3, post[0].Len(), "cors, body, handler")
	})

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()
		r := MustNew()
		r.POST("/orders", noop)
		assert.Empty(t, routesFor(r, http.MethodOptions, "/orders"))
	})

	t.Run("route policy without router default", func(t *testing.T) {
		t.Parallel()
		r := MustNew()
		r.With(WithRouteCORS(cors.New(cors.WithOrigin("https://a.example")))).POST("/orders", noop)
		assert.Len(t, routesFor(r, http.MethodOptions, "/orders"), 1)
	})

	t.Run("explicit disable wins", func(t *testing.T) {
		t.Parallel()
		r := MustNew(WithCORS(cors.DefaultPolicy()))
		r.With(WithRouteCORS(cors.DefaultPolicy()), WithoutRouteCORS()).POST("/orders", noop)
		assert.Empty(t, routesFor(r, http.MethodOptions, "/orders"))
	})
}

func TestUpload_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		methods []string
		want    []string
	}{
		{name: "default", want: []string{http.MethodPost}},
		{name: "intersection", methods: []string{"put", "get", "patch"}, want: []string{http.MethodPut, http.MethodPatch}},
		{name: "no overlap", methods: []string{http.MethodGet}, want: []string{http.MethodPost}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := MustNew()
			r.With(WithRouteMethods(tt.methods...)).Upload("/files", noop)

			routes := r.Routes()
			require.Len(t, routes, 1)
			assert.Equal(t, tt.want, routes[0].Methods())
			assert.Equal(t, TypeUpload, routes[0].Type())
			assert.Equal(t, 2, routes[0].Len(), "upload stage, handler; no body stage")
		})
	}
}

func TestDefine_Annotations(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog()
	r := MustNew(WithDocs(catalog))
	ann := Annotations{
		Summary: "show user",
		Parameters: validation.Parameters{
			Path: map[string]*validation.Schema{"id": {Type: "integer", Required: true}},
		},
	}
	r.With(WithAnnotations(ann)).GET("/users/:id/:tab?", noop)
	r.With(WithAnnotations(ann), WithoutRouteValidator()).DELETE("/users/:id", noop)
	r.With(WithAnnotations(Annotations{Summary: "undocumented verb"})).OPTIONS("/users", noop)

	ops := catalog.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "get", ops[0].Method)
	assert.Equal(t, "/users/{id}/{tab}", ops[0].Path)
	assert.Equal(t, "/users/:id/:tab?", ops[0].Annotations.OperationID)
	assert.Equal(t, "delete", ops[1].Method)

	get := routesFor(r, http.MethodGet, "/users/:id/:tab?")
	require.Len(t, get, 1)
	assert.Equal(t, 2, get[0].Len(), "validation stage, handler")
	assert.Equal(t, "show user", get[0].Annotations().Summary)

	del := routesFor(r, http.MethodDelete, "/users/:id")
	require.Len(t, del, 1)
	assert.Equal(t, 1, del[0].Len())

	op, ok := catalog.Lookup(http.MethodGet, "/users/{id}/{tab}")
	assert.True(t, ok)
	assert.Equal(t, "show user", op.Annotations.Summary)
}

func TestDefine_WithoutValidator(t *testing.T) {
	t.Parallel()

	r := MustNew(WithoutValidator())
	r.With(WithAnnotations(Annotations{
		Parameters: validation.Parameters{Query: map[string]*validation.Schema{"q": {Type: "string"}}},
	})).GET("/search", noop)

	get := routesFor(r, http.MethodGet, "/search")
	require.Len(t, get, 1)
	assert.Equal(t, 1, get[0].Len())
}

func TestDocPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a/{id}/{rest}", DocPath("/a/:id/:rest*"))
	assert.Equal(t, "/a/{opt}", DocPath("/a/:opt?"))
	assert.Equal(t, "/a/{many}", DocPath("/a/:many+"))
	assert.Equal(t, "/plain", DocPath("/plain"))
}

func TestRegister_Errors(t *testing.T) {
	t.Parallel()

	r := MustNew()

	err := r.Register(RouteConfig{Methods: []string{http.MethodGet}, Path: "/x"})
	require.ErrorIs(t, err, ErrNoHandlers)

	err = r.Register(RouteConfig{Methods: []string{" "}, Path: "/x", Handlers: []HandlerFunc{noop}})
	require.ErrorIs(t, err, ErrNoMethods)

	err = r.Define(RouteConfig{Methods: []string{http.MethodGet}, Path: "/x", Handlers: []HandlerFunc{noop, nil}})
	require.ErrorIs(t, err, ErrNilHandler)

	err = r.Register(RouteConfig{Methods: []string{http.MethodGet}, Path: "/x/:id(", Handlers: []HandlerFunc{noop}})
	require.ErrorIs(t, err, ErrInvalidPath)

	assert.Empty(t, r.Routes(), "failed registrations leave no companions behind")
}

func TestRegister_VerbsPanic(t *testing.T) {
	t.Parallel()

	r := MustNew()
	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		err, ok := rec.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrNilHandler)
	}()
	r.GET("/x", nil)
}

func TestRegister_RoutesAsGiven(t *testing.T) {
	t.Parallel()

	r := MustNew(WithCORS(cors.DefaultPolicy()))
	require.NoError(t, r.Register(RouteConfig{
		Methods:  []string{http.MethodGet, http.MethodPost},
		Path:     "/raw",
		Handlers: []HandlerFunc{noop},
	}))

	routes := r.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, 1, routes[0].Len())
	assert.Equal(t, TypeDefine, routes[0].Type())
}

func TestActivate_Idempotent(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.GET("/", noop)

	calls := 0
	var seen []*Route
	r.BeforeStart(func(routes []*Route) {
		calls++
		seen = routes
	})

	require.NoError(t, r.Activate())
	before := r.Routes()
	require.NoError(t, r.Warmup())
	serve(r, http.MethodGet, "/")

	assert.Equal(t, 1, calls)
	assert.Len(t, seen, 2)
	assert.Equal(t, before, r.Routes())
	assert.True(t, r.Frozen())
}

func TestActivate_FreezesRegistry(t *testing.T) {
	t.Parallel()

	r := MustNew()
	require.NoError(t, r.Activate())

	assert.ErrorIs(t, r.Register(RouteConfig{Methods: []string{http.MethodGet}, Path: "/", Handlers: []HandlerFunc{noop}}), ErrFrozen)
	assert.ErrorIs(t, r.AddEntry(RouteConfig{Handlers: []HandlerFunc{noop}}), ErrFrozen)
	assert.Panics(t, func() { r.GET("/late", noop) })
	assert.Panics(t, func() { r.BeforeStart(func([]*Route) {}) })
}

func TestActivate_ValidatorCompileError(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.With(WithAnnotations(Annotations{
		Parameters: validation.Parameters{
			Query: map[string]*validation.Schema{"q": {Type: "string", Pattern: "("}},
		},
	})).GET("/search", noop)

	err := r.Activate()
	require.ErrorIs(t, err, ErrValidatorCompile)
	assert.ErrorIs(t, r.Activate(), ErrValidatorCompile)

	derr := r.Dispatch(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/search", nil), nil)
	assert.True(t, errors.Is(derr, ErrValidatorCompile))
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(WithMethods())
	require.ErrorIs(t, err, ErrNoMethods)

	_, err = New(WithServerTimeouts(0, 1, 1, 1))
	require.ErrorIs(t, err, ErrServerTimeoutInvalid)

	assert.Panics(t, func() { MustNew(WithMethods()) })
}

func TestWithMethods_UsedByAnyAndUse(t *testing.T) {
	t.Parallel()

	r := MustNew(WithMethods("get", "post"))
	r.Use(noop)
	r.Any("/any", noop)

	assert.Equal(t, []string{http.MethodHead, http.MethodGet, http.MethodPost}, r.Entries()[0].Methods())

	all := routesFor(r, http.MethodPost, "/any")
	require.Len(t, all, 1)
	assert.Equal(t, []string{http.MethodGet, http.MethodPost}, all[0].Methods())
	assert.Len(t, routesFor(r, http.MethodHead, "/any"), 1, "HEAD companion for GET")
	assert.True(t, slices.Contains(r.methods, http.MethodGet))
}
