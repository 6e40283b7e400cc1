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

//go:build integration

package middleware_test

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/router/middleware"
	"rivaas.dev/dispatch/router/middleware/accesslog"
	"rivaas.dev/dispatch/router/middleware/basicauth"
	"rivaas.dev/dispatch/router/middleware/compression"
	"rivaas.dev/dispatch/router/middleware/methodoverride"
	"rivaas.dev/dispatch/router/middleware/ratelimit"
	"rivaas.dev/dispatch/router/middleware/recovery"
	"rivaas.dev/dispatch/router/middleware/requestid"
	"rivaas.dev/dispatch/router/middleware/security"
	"rivaas.dev/dispatch/router/middleware/timeout"
	"rivaas.dev/dispatch/router/middleware/trailingslash"
)

func decodeCode(resp *http.Response) float64 {
	var body map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
	code, ok := body["code"].(float64)
	Expect(ok).To(BeTrue())
	return code
}

var _ = Describe("Middleware stack", func() {
	var (
		logs   *middleware.RecordingHandler
		server *httptest.Server
		client *http.Client
	)

	BeforeEach(func() {
		logs = middleware.NewRecordingHandler()
		logger := slog.New(logs)

		r := router.MustNew(router.WithLogger(logger))
		r.Use(
			requestid.New(requestid.WithLogger(logger)),
			accesslog.New(accesslog.WithLogger(logger)),
			recovery.New(recovery.WithLogger(logger), recovery.WithPrettyStack(false)),
			security.New(),
			compression.New(compression.WithMinSize(256)),
		)
		r.GET("/hello", func(c *router.Context) {
			_ = c.String(http.StatusOK, "hello")
		})
		r.GET("/report", func(c *router.Context) {
			_ = c.String(http.StatusOK, strings.Repeat("line of report text\n", 200))
		})
		r.GET("/panic", func(*router.Context) {
			panic("boom")
		})
		r.GET("/slow", timeout.New(timeout.WithDuration(50*time.Millisecond)), func(c *router.Context) {
			select {
			case <-c.Request.Context().Done():
			case <-time.After(2 * time.Second):
				_ = c.String(http.StatusOK, "late")
			}
		})
		r.GET("/admin",
			basicauth.New(basicauth.WithUsers(map[string]string{"ops": "pa55"})),
			func(c *router.Context) { _ = c.String(http.StatusOK, "welcome "+basicauth.Username(c)) },
		)
		r.GET("/quota",
			ratelimit.PerRoute(ratelimit.New(ratelimit.WithRequestsPerSecond(0.001), ratelimit.WithBurst(1))),
			func(c *router.Context) { _ = c.String(http.StatusOK, "ok") },
		)
		r.DELETE("/items/:id", func(c *router.Context) {
			_ = c.String(http.StatusOK, "deleted "+c.Param("id"))
		})

		server = httptest.NewServer(trailingslash.Wrap(methodoverride.Wrap(r)))
		client = &http.Client{
			Transport: &http.Transport{DisableCompression: true},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	})

	AfterEach(func() {
		server.Close()
	})

	get := func(path string, setup func(*http.Request)) *http.Response {
		req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
		Expect(err).NotTo(HaveOccurred())
		if setup != nil {
			setup(req)
		}
		resp, err := client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(resp.Body.Close)
		return resp
	}

	It("correlates the request ID with the access log", func() {
		resp := get("/hello", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		id := resp.Header.Get(requestid.DefaultHeader)
		Expect(id).NotTo(BeEmpty())
		Expect(resp.Header.Get("X-Content-Type-Options")).To(Equal("nosniff"))

		records := logs.Records("access")
		Expect(records).To(HaveLen(1))
		Expect(records[0].Attrs).To(HaveKeyWithValue("request_id", id))
		Expect(records[0].Attrs).To(HaveKeyWithValue("route", "/hello"))
		Expect(records[0].Attrs["status"]).To(BeEquivalentTo(http.StatusOK))
	})

	It("keeps a valid client request ID", func() {
		resp := get("/hello", func(req *http.Request) { req.Header.Set(requestid.DefaultHeader, "client-123") })
		Expect(resp.Header.Get(requestid.DefaultHeader)).To(Equal("client-123"))
	})

	It("turns a panic into a 500 seen by the access log", func() {
		resp := get("/panic", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(decodeCode(resp)).To(BeEquivalentTo(500900))

		access := logs.Records("access")
		Expect(access).To(HaveLen(1))
		Expect(access[0].Level).To(Equal(slog.LevelError))
		Expect(access[0].Attrs["status"]).To(BeEquivalentTo(http.StatusInternalServerError))
	})

	It("compresses large bodies only", func() {
		resp := get("/report", func(req *http.Request) { req.Header.Set("Accept-Encoding", "gzip") })
		Expect(resp.Header.Get("Content-Encoding")).To(Equal("gzip"))
		zr, err := gzip.NewReader(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		body, err := io.ReadAll(zr)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(HavePrefix("line of report text"))

		small := get("/hello", func(req *http.Request) { req.Header.Set("Accept-Encoding", "gzip") })
		Expect(small.Header.Get("Content-Encoding")).To(BeEmpty())
	})

	It("answers 503 when a handler overruns its deadline", func() {
		resp := get("/slow", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		Expect(decodeCode(resp)).To(BeEquivalentTo(503900))
	})

	It("challenges anonymous callers and keeps security headers", func() {
		resp := get("/admin", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring(`realm="Restricted"`))
		Expect(resp.Header.Get("X-Frame-Options")).To(Equal("DENY"))

		ok := get("/admin", func(req *http.Request) { req.SetBasicAuth("ops", "pa55") })
		Expect(ok.StatusCode).To(Equal(http.StatusOK))
		body, _ := io.ReadAll(ok.Body)
		Expect(string(body)).To(Equal("welcome ops"))
	})

	It("limits a single route", func() {
		Expect(get("/quota", nil).StatusCode).To(Equal(http.StatusOK))
		resp := get("/quota", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusTooManyRequests))
		Expect(resp.Header.Get("Retry-After")).NotTo(BeEmpty())
		Expect(get("/hello", nil).StatusCode).To(Equal(http.StatusOK))
	})

	It("redirects trailing slashes before routing", func() {
		resp := get("/hello/", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusPermanentRedirect))
		Expect(resp.Header.Get("Location")).To(Equal("/hello"))
	})

	It("dispatches overridden form posts", func() {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/items/9?_method=DELETE", nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err := client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		Expect(string(body)).To(Equal("deleted 9"))
	})
})
