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

package compression

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/router"
)

var payload = strings.Repeat("dispatch compresses this body. ", 64)

func newServer(opts ...Option) *router.Router {
	r := router.MustNew()
	r.Use(New(opts...))
	r.GET("/text", func(c *router.Context) { _ = c.String(http.StatusOK, payload) })
	r.GET("/small", func(c *router.Context) { _ = c.String(http.StatusOK, "tiny") })
	r.GET("/empty", func(c *router.Context) { c.NoContent() })
	r.GET("/binary", func(c *router.Context) {
		c.Header("Content-Type", "application/octet-stream")
		_, _ = c.Response.Write([]byte(payload))
	})
	r.GET("/precompressed", func(c *router.Context) {
		c.Header("Content-Encoding", "gzip")
		_, _ = c.Response.Write([]byte("already"))
	})
	return r
}

func get(r *router.Router, target, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if accept != "" {
		req.Header.Set("Accept-Encoding", accept)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCompression_Gzip(t *testing.T) {
	t.Parallel()

	w := get(newServer(), "/text", "gzip")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Gzip, w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Values("Vary"), "Accept-Encoding")
	assert.Empty(t, w.Header().Get("Content-Length"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))
}

func TestCompression_BrotliPreferred(t *testing.T) {
	t.Parallel()

	w := get(newServer(), "/text", "gzip, br")
	require.Equal(t, Brotli, w.Header().Get("Content-Encoding"))

	body, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))
}

func TestCompression_Negotiation(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	tests := []struct {
		accept string
		want   string
	}{
		{accept: "", want: ""},
		{accept: "identity", want: ""},
		{accept: "gzip", want: Gzip},
		{accept: "br;q=0.5, gzip;q=0.8", want: Gzip},
		{accept: "br, gzip;q=0", want: Brotli},
		{accept: "br;q=0, gzip;q=0", want: ""},
		{accept: "*", want: Brotli},
		{accept: "deflate, GZIP", want: Gzip},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, chooseEncoding(tt.accept, cfg), tt.accept)
	}

	gzipOnly := defaultConfig()
	WithBrotliDisabled()(gzipOnly)
	assert.Equal(t, Gzip, chooseEncoding("br, gzip", gzipOnly))

	brOnly := defaultConfig()
	WithGzipDisabled()(brOnly)
	assert.Equal(t, Brotli, chooseEncoding("gzip, br;q=0.1", brOnly))
}

func TestCompression_PassThrough(t *testing.T) {
	t.Parallel()

	r := newServer(WithExcludePaths("/text"))
	tests := []struct {
		name   string
		target string
		accept string
	}{
		{name: "no accept-encoding", target: "/small"},
		{name: "excluded path", target: "/text", accept: "gzip"},
		{name: "binary content", target: "/binary", accept: "gzip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := get(r, tt.target, tt.accept)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
			assert.NotEmpty(t, w.Body.String())
		})
	}
}

func TestCompression_KeepsExistingEncoding(t *testing.T) {
	t.Parallel()

	w := get(newServer(), "/precompressed", "gzip")
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, "already", w.Body.String())
}

func TestCompression_NoContent(t *testing.T) {
	t.Parallel()

	w := get(newServer(), "/empty", "gzip")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Zero(t, w.Body.Len())
}

func TestCompression_MinSize(t *testing.T) {
	t.Parallel()

	r := newServer(WithMinSize(256))

	small := get(r, "/small", "gzip")
	assert.Empty(t, small.Header().Get("Content-Encoding"))
	assert.Equal(t, "tiny", small.Body.String())

	large := get(r, "/text", "gzip")
	assert.Equal(t, Gzip, large.Header().Get("Content-Encoding"))
}

func TestCompression_ExcludeContentTypesAndExtensions(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New(WithExcludeContentTypes("Text/Plain"), WithExcludeExtensions(".png")))
	r.GET("/text", func(c *router.Context) { _ = c.String(http.StatusOK, payload) })
	r.GET("/img.png", func(c *router.Context) { _ = c.HTML(http.StatusOK, payload) })

	assert.Empty(t, get(r, "/text", "gzip").Header().Get("Content-Encoding"))
	assert.Empty(t, get(r, "/img.png", "gzip").Header().Get("Content-Encoding"))
}

func TestCompression_Levels(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	WithGzipLevel(42)(cfg)
	WithBrotliLevel(12)(cfg)
	assert.Equal(t, gzip.DefaultCompression, cfg.gzipLevel)
	assert.Equal(t, 4, cfg.brotliLevel)

	WithGzipLevel(gzip.BestSpeed)(cfg)
	WithBrotliLevel(9)(cfg)
	assert.Equal(t, gzip.BestSpeed, cfg.levelFor(Gzip))
	assert.Equal(t, 9, cfg.levelFor(Brotli))
}
