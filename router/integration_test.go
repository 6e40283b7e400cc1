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

// These tests run a router behind a real HTTP server and check dispatch,
// CORS and uploads end to end.

//go:build integration

package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/dispatch/cors"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/upload"
)

type part struct {
	field, filename, content string
}

func multipartRequest(url string, parts ...part) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.filename == "" {
			Expect(mw.WriteField(p.field, p.content)).To(Succeed())
			continue
		}
		w, err := mw.CreateFormFile(p.field, p.filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = io.WriteString(w, p.content)
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(mw.Close()).To(Succeed())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// storedFiles lists the regular files below root.
func storedFiles(root string) []string {
	var files []string
	Expect(filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})).To(Succeed())
	return files
}

func readAll(resp *http.Response) string {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return string(b)
}

var _ = Describe("Router", Label("integration", "router"), func() {
	var (
		r      *router.Router
		server *httptest.Server
	)

	AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	start := func() {
		server = httptest.NewServer(r)
	}

	Describe("dispatch", func() {
		BeforeEach(func() {
			r = router.MustNew(router.WithPrefix("/api"))
			r.Use(func(c *router.Context) {
				c.Header("X-Trace", "global")
			})
			r.UseAt("users/:rest*", func(c *router.Context) {
				c.Set("scope", "users")
			})
			r.GET("users/:id", func(c *router.Context) {
				c.String(http.StatusOK, "first")
			})
			r.GET("users/:id", func(c *router.Context) {
				scope, _ := c.Get("scope")
				c.JSON(http.StatusOK, map[string]any{"id": c.Param("id"), "scope": scope})
			})
			start()
		})

		It("runs the entries then the last matching route", func() {
			resp, err := http.Get(server.URL + "/api/users/42")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("X-Trace")).To(Equal("global"))

			var payload map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&payload)).To(Succeed())
			resp.Body.Close()
			Expect(payload).To(Equal(map[string]any{"id": "42", "scope": "users"}))
		})

		It("answers HEAD through the GET companion", func() {
			resp, err := http.Head(server.URL + "/api/users/42")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("X-Trace")).To(Equal("global"))
		})

		It("answers 404 without running entries when nothing matches", func() {
			resp, err := http.Get(server.URL + "/api/orders")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(resp.Header.Get("X-Trace")).To(BeEmpty())
		})

		It("freezes the registry after the first request", func() {
			resp, err := http.Get(server.URL + "/api/users/1")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(r.Frozen()).To(BeTrue())
			Expect(func() { r.GET("late", func(*router.Context) {}) }).To(Panic())
		})
	})

	Describe("CORS", func() {
		BeforeEach(func() {
			r = router.MustNew(router.WithCORS(cors.New(
				cors.WithAllowedOrigins("https://app.example"),
				cors.WithAllowCredentials(true),
			)))
			r.POST("/orders", func(c *router.Context) {
				c.String(http.StatusCreated, "created")
			})
			start()
		})

		It("answers preflight requests from the companion route", func() {
			req, err := http.NewRequest(http.MethodOptions, server.URL+"/orders", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Origin", "https://app.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get(cors.HeaderAllowOrigin)).To(Equal("https://app.example"))
			Expect(resp.Header.Get(cors.HeaderAllowCredentials)).To(Equal("true"))
			Expect(resp.Header.Values(cors.HeaderVary)).To(ContainElement(ContainSubstring("Origin")))
		})

		It("omits the origin for disallowed origins", func() {
			req, err := http.NewRequest(http.MethodPost, server.URL+"/orders", strings.NewReader(""))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Origin", "https://evil.example")

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(readAll(resp)).To(Equal("created"))
			Expect(resp.Header.Get(cors.HeaderAllowOrigin)).To(BeEmpty())
		})
	})

	Describe("uploads", func() {
		var root string

		BeforeEach(func() {
			root = GinkgoT().TempDir()
			r = router.MustNew(router.WithUpload(router.UploadOptions{Config: upload.Config{
				Root:            root,
				AllowedFileExts: []string{".txt"},
			}}))
			r.Upload("/files", func(c *router.Context) {
				f := c.Upload().File("doc")
				title, _ := c.Upload().Field("title")
				c.JSON(http.StatusCreated, map[string]any{"title": title, "size": f.Size})
			})
			start()
		})

		It("stores accepted files on disk", func() {
			resp, err := http.DefaultClient.Do(multipartRequest(server.URL+"/files",
				part{field: "title", content: "notes"},
				part{field: "doc", filename: "notes.txt", content: "hello"},
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(readAll(resp)).To(MatchJSON(`{"title":"notes","size":5}`))

			files := storedFiles(root)
			Expect(files).To(HaveLen(1))
			content, err := os.ReadFile(files[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("hello"))
		})

		It("rolls back every stored file when a later part is rejected", func() {
			resp, err := http.DefaultClient.Do(multipartRequest(server.URL+"/files",
				part{field: "doc", filename: "notes.txt", content: "hello"},
				part{field: "bin", filename: "tool.exe", content: "MZ"},
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(readAll(resp)).To(MatchJSON(`{"code":500500,"message":"File type is not allowed."}`))
			Expect(storedFiles(root)).To(BeEmpty())
		})
	})
})
