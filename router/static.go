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
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rivaas.dev/dispatch/errors"
)

// ErrFileNotFound is reported by static stages for missing, hidden or
// directory paths.
var ErrFileNotFound = errors.WithStatus(fs.ErrNotExist, http.StatusNotFound)

// StaticOptions configures the static stage.
type StaticOptions struct {
	// Root is the directory files are served from. Default: ".".
	Root string `config:"root"`

	// Filename serves one fixed file; the route path gets no ":filename*"
	// capture.
	Filename string `config:"filename"`

	// MaxAge sets Cache-Control max-age; Immutable adds "immutable".
	MaxAge    time.Duration `config:"max_age"`
	Immutable bool          `config:"immutable"`

	// Hidden allows names with a segment starting with a dot.
	Hidden bool `config:"hidden"`

	// Index is redirected to when the capture is empty.
	Index string `config:"index"`

	// Precompressed serves name.br or name.gz when the client accepts them.
	Precompressed bool `config:"precompressed"`

	// Filter decides which names are served; others continue the chain.
	// Without Filter, Include or else Exclude is used.
	Filter  func(name string) bool `config:"-"`
	Include *regexp.Regexp         `config:"-"`
	Exclude *regexp.Regexp         `config:"-"`

	// Converter maps the captured name to a file name. Without it MapList
	// renames listed names.
	Converter func(name string) string `config:"-"`
	MapList   map[string]string        `config:"map_list"`

	// OnError replaces the default response for missing files and
	// read failures.
	OnError ErrorHandler `config:"-"`
}

func staticStage(opts StaticOptions) (HandlerFunc, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("static root: %w", err)
	}

	filter := opts.Filter
	switch {
	case filter != nil:
	case opts.Include != nil:
		filter = opts.Include.MatchString
	case opts.Exclude != nil:
		filter = func(name string) bool { return !opts.Exclude.MatchString(name) }
	default:
		filter = func(string) bool { return true }
	}

	convert := opts.Converter
	switch {
	case opts.Filename != "":
		convert = func(string) string { return opts.Filename }
	case convert != nil:
	case opts.MapList != nil:
		convert = func(name string) string {
			if mapped, ok := opts.MapList[name]; ok {
				return mapped
			}
			return name
		}
	default:
		convert = func(name string) string { return name }
	}

	s := &staticServer{root: root, opts: opts}
	return func(c *Context) {
		name := convert(c.Param("filename"))
		if name == "" {
			if opts.Index != "" {
				c.Redirect(http.StatusFound, strings.TrimSuffix(c.Request.URL.Path, "/")+"/"+opts.Index)
				c.Abort()
			}
			return
		}
		if !filter(name) {
			return
		}
		if err := s.send(c, name); err != nil {
			c.fail(err, opts.OnError)
		}
	}, nil
}

type staticServer struct {
	root string
	opts StaticOptions
}

// send writes the file name below the root. Names escaping the root,
// hidden names and directories are not found.
func (s *staticServer) send(c *Context, name string) error {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" || (!s.opts.Hidden && isHidden(name)) {
		return ErrFileNotFound
	}

	served, encoding := name, ""
	if s.opts.Precompressed {
		served, encoding = s.precompressed(c.Request, name)
	}

	f, err := os.OpenInRoot(s.root, filepath.FromSlash(served))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return ErrFileNotFound
	}

	h := c.Response.Header()
	if encoding != "" {
		h.Set("Content-Encoding", encoding)
		h.Add("Vary", "Accept-Encoding")
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		h.Set("Content-Type", ct)
	}
	if h.Get("Cache-Control") == "" {
		cc := "max-age=" + strconv.Itoa(int(s.opts.MaxAge/time.Second))
		if s.opts.Immutable {
			cc += ",immutable"
		}
		h.Set("Cache-Control", cc)
	}
	http.ServeContent(c.Response, c.Request, name, info.ModTime(), f)
	return nil
}

// precompressed picks a .br or .gz sibling accepted by the client.
func (s *staticServer) precompressed(req *http.Request, name string) (string, string) {
	accept := req.Header.Get("Accept-Encoding")
	for _, candidate := range []struct{ token, ext string }{{"br", ".br"}, {"gzip", ".gz"}} {
		if !strings.Contains(accept, candidate.token) {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(name+candidate.ext))); err == nil {
			return name + candidate.ext, candidate.token
		}
	}
	return name, ""
}

func isHidden(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
