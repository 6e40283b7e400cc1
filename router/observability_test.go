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
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

type fakeRecorder struct {
	name    string
	exclude string

	mu     sync.Mutex
	events *[]string
	ends   []string
	status []int
}

func (f *fakeRecorder) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	f.mu.Lock()
	*f.events = append(*f.events, f.name+":start")
	f.mu.Unlock()
	ctx = context.WithValue(ctx, ctxKey(f.name), true)
	if req.URL.Path == f.exclude {
		return ctx, nil
	}
	return ctx, f.name
}

func (f *fakeRecorder) WrapResponseWriter(w http.ResponseWriter, _ any) http.ResponseWriter {
	return NewResponseInfoWriter(w)
}

func (f *fakeRecorder) OnRequestEnd(_ context.Context, _ any, w http.ResponseWriter, pattern string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*f.events = append(*f.events, f.name+":end")
	f.ends = append(f.ends, pattern)
	if info, ok := w.(ResponseInfo); ok {
		f.status = append(f.status, info.StatusCode())
	}
}

func TestObservability_Recorder(t *testing.T) {
	t.Parallel()

	var events []string
	rec := &fakeRecorder{name: "metrics", events: &events, exclude: "/metrics"}
	var enriched bool

	r := MustNew(WithObservability(rec))
	r.GET("/users/:id", func(c *Context) {
		enriched, _ = c.Request.Context().Value(ctxKey("metrics")).(bool)
		c.Status(http.StatusAccepted)
	})
	r.GET("/metrics", func(c *Context) {})

	serve(r, http.MethodGet, "/users/1")
	serve(r, http.MethodGet, "/nowhere")
	serve(r, http.MethodGet, "/metrics")

	assert.True(t, enriched)
	assert.Equal(t, []string{"/users/:id", "_unmatched"}, rec.ends)
	assert.Equal(t, []int{http.StatusAccepted, http.StatusNotFound}, rec.status)
}

func TestRecorderChain(t *testing.T) {
	t.Parallel()

	var events []string
	first := &fakeRecorder{name: "first", events: &events}
	second := &fakeRecorder{name: "second", events: &events, exclude: "/quiet"}

	var sawBoth bool
	r := MustNew(WithObservability(RecorderChain{first, second}))
	r.GET("/", func(c *Context) {
		ctx := c.Request.Context()
		sawBoth = ctx.Value(ctxKey("first")) != nil && ctx.Value(ctxKey("second")) != nil
	})
	r.GET("/quiet", func(*Context) {})

	serve(r, http.MethodGet, "/")
	assert.True(t, sawBoth)
	assert.Equal(t, []string{"first:start", "second:start", "second:end", "first:end"}, events)

	events = events[:0]
	serve(r, http.MethodGet, "/quiet")
	assert.Equal(t, []string{"first:start", "second:start", "first:end"}, events)
	assert.Equal(t, []string{"/"}, second.ends)
}

func TestRecorderChain_AllExcluded(t *testing.T) {
	t.Parallel()

	var events []string
	chain := RecorderChain{
		&fakeRecorder{name: "a", events: &events, exclude: "/x"},
		&fakeRecorder{name: "b", events: &events, exclude: "/x"},
	}
	req, err := http.NewRequest(http.MethodGet, "/x", nil)
	require.NoError(t, err)

	_, state := chain.OnRequestStart(context.Background(), req)
	assert.Nil(t, state)
}

func TestDiagnostics(t *testing.T) {
	t.Parallel()

	var kinds []DiagnosticKind
	r := MustNew(WithDiagnostics(DiagnosticHandlerFunc(func(e DiagnosticEvent) {
		kinds = append(kinds, e.Kind)
	})))
	r.GET("/", func(c *Context) {
		c.Header("X-Next", "a\r\nSet-Cookie: x=1")
	})
	require.NoError(t, r.Activate())
	serve(r, http.MethodGet, "/")

	assert.Equal(t, []DiagnosticKind{
		DiagRouteRegistered,
		DiagCompanionRoute,
		DiagRouteRegistered,
		DiagActivated,
		DiagHeaderInjection,
	}, kinds)
}
