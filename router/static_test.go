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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTree creates root/public with a few files and a secret beside it.
func staticTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	public := filepath.Join(root, "public")
	require.NoError(t, os.MkdirAll(filepath.Join(public, "css"), 0o755))
	files := map[string]string{
		"secret.txt":           "secret",
		"public/hello.txt":     "hello",
		"public/css/site.css":  "body{}",
		"public/.env":          "TOKEN=1",
		"public/app.html":      "<main></main>",
		"public/bundle.js":     "plain",
		"public/bundle.js.gz":  "gzipped",
		"public/notes.md":      "# notes",
		"public/docs/index.md": "index",
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return public
}

func TestStatic_ServesFiles(t *testing.T) {
	t.Parallel()

	public := staticTree(t)
	r := MustNew(WithStatic(StaticOptions{Root: public, MaxAge: time.Hour, Immutable: true}))
	r.Static("/assets")

	w := serve(r, http.MethodGet, "/assets/css/site.css")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")
	assert.Equal(t, "max-age=3600,immutable", w.Header().Get("Cache-Control"))

	head := serve(r, http.MethodHead, "/assets/hello.txt")
	assert.Equal(t, http.StatusOK, head.Code)
	assert.Empty(t, head.Body.String())

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "/assets/:filename*", routes[1].Path())
	assert.Equal(t, TypeStatic, routes[1].Type())
}

func TestStatic_NotFound(t *testing.T) {
	t.Parallel()

	public := staticTree(t)
	r := MustNew(WithStatic(StaticOptions{Root: public}))
	r.Static("/assets")

	for _, target := range []string{
		"/assets/missing.txt",
		"/assets/.env",
		"/assets/css",
		"/assets/../secret.txt",
	} {
		w := serve(r, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.NotContains(t, w.Body.String(), "secret", target)
	}
}

func TestStatic_HiddenAllowed(t *testing.T) {
	t.Parallel()

	r := MustNew(WithStatic(StaticOptions{Root: staticTree(t), Hidden: true}))
	r.Static("/assets")

	w := serve(r, http.MethodGet, "/assets/.env")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatic_FilterPassesThrough(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.With(WithRouteStatic(StaticOptions{
		Root:    staticTree(t),
		Include: regexp.MustCompile(`\.(css|txt)$`),
	})).Static("/assets", func(c *Context) {
		if !c.Response.(*responseWriter).Written() {
			c.String(http.StatusTeapot, "fallback")
		}
	})

	assert.Equal(t, "hello", serve(r, http.MethodGet, "/assets/hello.txt").Body.String())

	w := serve(r, http.MethodGet, "/assets/notes.md")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "fallback", w.Body.String())
}

func TestStatic_IndexRedirect(t *testing.T) {
	t.Parallel()

	r := MustNew(WithStatic(StaticOptions{Root: staticTree(t), Index: "hello.txt"}))
	r.Static("/assets")

	w := serve(r, http.MethodGet, "/assets")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/assets/hello.txt", w.Header().Get("Location"))
}

func TestStatic_FixedFilename(t *testing.T) {
	t.Parallel()

	r := MustNew(WithStatic(StaticOptions{Root: staticTree(t), Filename: "app.html"}))
	r.Static("/app")

	w := serve(r, http.MethodGet, "/app")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<main></main>", w.Body.String())
	assert.Equal(t, "/app", r.Routes()[1].Path())
}

func TestStatic_MapList(t *testing.T) {
	t.Parallel()

	r := MustNew(WithStatic(StaticOptions{Root: staticTree(t), MapList: map[string]string{"latest": "hello.txt"}}))
	r.Static("/files")

	assert.Equal(t, "hello", serve(r, http.MethodGet, "/files/latest").Body.String())
}

func TestStatic_Precompressed(t *testing.T) {
	t.Parallel()

	r := MustNew(WithStatic(StaticOptions{Root: staticTree(t), Precompressed: true}))
	r.Static("/assets")

	req := httptest.NewRequest(http.MethodGet, "/assets/bundle.js", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	w := send(r, req)

	assert.Equal(t, "gzipped", w.Body.String())
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Get("Content-Type"), "javascript")

	plain := serve(r, http.MethodGet, "/assets/bundle.js")
	assert.Equal(t, "plain", plain.Body.String())
	assert.Empty(t, plain.Header().Get("Content-Encoding"))
}

func TestStatic_OnError(t *testing.T) {
	t.Parallel()

	var seen error
	r := MustNew(WithStatic(StaticOptions{
		Root: staticTree(t),
		OnError: func(c *Context, err error) {
			seen = err
			c.String(http.StatusGone, "gone")
		},
	}))
	r.Static("/assets")

	w := serve(r, http.MethodGet, "/assets/missing.txt")
	assert.Equal(t, http.StatusGone, w.Code)
	assert.ErrorIs(t, seen, ErrFileNotFound)
}
