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

package compression

import (
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"

	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/telemetry/semconv"
)

// Encodings.
const (
	Brotli = "br"
	Gzip   = "gzip"
)

// New returns an entry compressing the responses of the handlers after it.
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		if c.Request.Method == http.MethodHead || cfg.excluded(c.Request.URL.Path) {
			c.Next()
			return
		}
		encoding := chooseEncoding(c.Request.Header.Get("Accept-Encoding"), cfg)
		if encoding == "" {
			c.Next()
			return
		}

		c.Response.Header().Add("Vary", "Accept-Encoding")
		cw := &compressWriter{
			ResponseWriter: c.Response,
			encoding:       encoding,
			level:          cfg.levelFor(encoding),
			threshold:      cfg.minSize,
			excludeTypes:   cfg.excludeContentTypes,
			statusCode:     http.StatusOK,
		}
		original := c.Response
		c.Response = cw
		defer func() { c.Response = original }()

		c.Next()

		if err := cw.Close(); err != nil && cfg.logger != nil {
			cfg.logger.Error("compression finalization failed",
				slog.String(semconv.Path, c.Request.URL.Path),
				slog.Any("error", err),
			)
		}
	}
}

// compressWriter defers the compression decision until the status, the
// content type and, with a threshold, enough of the body are known.
type compressWriter struct {
	http.ResponseWriter
	encoding     string
	level        int
	threshold    int
	excludeTypes []string

	statusCode  int
	statusSet   bool
	headerSent  bool
	decided     bool
	compress    bool
	buffer      []byte
	writer      io.WriteCloser
	releaseFunc func()
}

// WriteHeader records the status. Responses that can never be compressed
// are decided immediately.
func (cw *compressWriter) WriteHeader(code int) {
	if cw.headerSent || cw.decided {
		return
	}
	cw.statusCode = code
	cw.statusSet = true
	if skipStatus(code) || !cw.compressible() {
		cw.passThrough()
	}
}

func (cw *compressWriter) Write(data []byte) (int, error) {
	if !cw.decided {
		if !cw.compressible() {
			cw.passThrough()
		} else if len(cw.buffer)+len(data) < cw.threshold {
			cw.buffer = append(cw.buffer, data...)
			return len(data), nil
		} else {
			cw.startCompression()
		}
	}
	if cw.compress {
		return cw.writer.Write(data)
	}
	return cw.ResponseWriter.Write(data)
}

// Flush compresses what was buffered so far and flushes the client connection.
func (cw *compressWriter) Flush() {
	if !cw.decided {
		cw.startCompression()
	}
	if f, ok := cw.writer.(interface{ Flush() error }); ok && cw.compress {
		_ = f.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying writer, for http.ResponseController.
func (cw *compressWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

func (cw *compressWriter) compressible() bool {
	h := cw.ResponseWriter.Header()
	if h.Get("Content-Encoding") != "" {
		return false
	}
	return !skipContentType(h.Get("Content-Type"), cw.excludeTypes)
}

func (cw *compressWriter) passThrough() {
	cw.decided = true
	cw.sendHeader()
	if len(cw.buffer) > 0 {
		_, _ = cw.ResponseWriter.Write(cw.buffer)
		cw.buffer = nil
	}
}

func (cw *compressWriter) startCompression() {
	cw.decided = true
	cw.compress = true
	h := cw.ResponseWriter.Header()
	h.Del("Content-Length")
	h.Set("Content-Encoding", cw.encoding)
	cw.sendHeader()
	cw.writer, cw.releaseFunc = acquireWriter(cw.encoding, cw.level, cw.ResponseWriter)
	if len(cw.buffer) > 0 {
		_, _ = cw.writer.Write(cw.buffer)
		cw.buffer = nil
	}
}

func (cw *compressWriter) sendHeader() {
	if !cw.headerSent {
		cw.headerSent = true
		cw.ResponseWriter.WriteHeader(cw.statusCode)
	}
}

// Close finishes the compressed stream, or sends a body that stayed below
// the threshold uncompressed. Nothing is sent when the handlers wrote nothing.
func (cw *compressWriter) Close() error {
	if !cw.decided {
		if cw.statusSet || len(cw.buffer) > 0 {
			cw.passThrough()
		}
		return nil
	}
	if !cw.compress {
		return nil
	}
	err := cw.writer.Close()
	cw.releaseFunc()
	return err
}

func skipStatus(code int) bool {
	return code == http.StatusNoContent ||
		code == http.StatusNotModified ||
		code == http.StatusPartialContent
}

func skipContentType(ct string, excludes []string) bool {
	if ct == "" {
		return false
	}
	ct = strings.ToLower(ct)
	for _, never := range []string{"text/event-stream", "application/grpc", "application/octet-stream"} {
		if strings.Contains(ct, never) {
			return true
		}
	}
	for _, ex := range excludes {
		if strings.Contains(ct, ex) {
			return true
		}
	}
	return false
}

type poolKey struct {
	encoding string
	level    int
}

var writerPools sync.Map // poolKey -> *sync.Pool

func acquireWriter(encoding string, level int, dst io.Writer) (io.WriteCloser, func()) {
	key := poolKey{encoding: encoding, level: level}
	p, _ := writerPools.LoadOrStore(key, &sync.Pool{New: func() any {
		if encoding == Brotli {
			return brotli.NewWriterLevel(io.Discard, level)
		}
		w, _ := gzip.NewWriterLevel(io.Discard, level)
		return w
	}})
	pool := p.(*sync.Pool)

	switch w := pool.Get().(type) {
	case *brotli.Writer:
		w.Reset(dst)
		return w, func() { w.Reset(io.Discard); pool.Put(w) }
	case *gzip.Writer:
		w.Reset(dst)
		return w, func() { w.Reset(io.Discard); pool.Put(w) }
	default:
		panic("compression: unexpected pooled writer")
	}
}

// chooseEncoding honors q-values and prefers Brotli on a tie.
func chooseEncoding(acceptEncoding string, cfg *config) string {
	if acceptEncoding == "" {
		return ""
	}
	brQ, gzipQ := -1.0, -1.0
	for _, part := range strings.Split(strings.ToLower(acceptEncoding), ",") {
		name, q := parseCoding(part)
		switch name {
		case Brotli:
			brQ = q
		case Gzip:
			gzipQ = q
		case "*":
			if brQ < 0 {
				brQ = q
			}
			if gzipQ < 0 {
				gzipQ = q
			}
		}
	}
	if cfg.enableBrotli && brQ > 0 && (brQ >= gzipQ || !cfg.enableGzip) {
		return Brotli
	}
	if cfg.enableGzip && gzipQ > 0 {
		return Gzip
	}
	return ""
}

func parseCoding(part string) (string, float64) {
	name, params, _ := strings.Cut(part, ";")
	name = strings.TrimSpace(name)
	q := 1.0
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || k != "q" {
			continue
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			q = f
		}
	}
	return name, q
}
