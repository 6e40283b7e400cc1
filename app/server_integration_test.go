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

package app_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/dispatch/app"
	"rivaas.dev/dispatch/config"
	"rivaas.dev/dispatch/config/codec"
	"rivaas.dev/dispatch/router"
)

const serverYAML = `
server:
  addr: 127.0.0.1:0
  shutdown_timeout: 2s
logging:
  environment: production
metrics:
  enabled: true
middleware:
  trailing_slash: remove
`

var _ = Describe("Server lifecycle", func() {
	var (
		a        *app.App
		cancel   context.CancelFunc
		done     chan error
		stopped  atomic.Bool
		baseURL  string
		settings *config.Settings
	)

	BeforeEach(func() {
		var err error
		settings, _, err = config.LoadSettings(context.Background(),
			config.WithContent([]byte(serverYAML), codec.TypeYAML))
		Expect(err).NotTo(HaveOccurred())

		a, err = app.New(settings, app.WithLogOutput(io.Discard), app.WithBannerOutput(io.Discard))
		Expect(err).NotTo(HaveOccurred())

		stopped.Store(false)
		a.OnShutdown(func(context.Context) { stopped.Store(true) })
		a.Router().GET("/slow", func(c *router.Context) {
			time.Sleep(200 * time.Millisecond)
			_ = c.String(http.StatusOK, "finished")
		})

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- a.Run(ctx) }()

		Eventually(a.Ready()).Should(BeClosed())
		baseURL = "http://" + a.Addr().String()
	})

	AfterEach(func() {
		cancel()
		Eventually(done, 5*time.Second).Should(Receive())
	})

	It("serves health and metrics on the bound port", func() {
		resp, err := http.Get(baseURL + "/healthz")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("X-Request-ID")).NotTo(BeEmpty())

		resp, err = http.Get(baseURL + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("applies the trailing slash policy before matching", func() {
		client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}}
		resp, err := client.Get(baseURL + "/healthz/")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusPermanentRedirect))
		Expect(resp.Header.Get("Location")).To(Equal("/healthz"))
	})

	It("drains in-flight requests and runs shutdown hooks", func() {
		body := make(chan string, 1)
		go func() {
			defer GinkgoRecover()
			resp, err := http.Get(baseURL + "/slow")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)
			body <- string(b)
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		var err error
		Eventually(done, 5*time.Second).Should(Receive(&err))
		Expect(err).NotTo(HaveOccurred())
		Expect(stopped.Load()).To(BeTrue())
		Eventually(body, 2*time.Second).Should(Receive(Equal("finished")))

		_, err = http.Get(baseURL + "/healthz")
		Expect(err).To(HaveOccurred())

		// AfterEach waits on done again.
		done <- nil
	})

	It("binds the requested interface on a chosen port", func() {
		Expect(strings.HasPrefix(a.Addr().String(), "127.0.0.1:")).To(BeTrue())
		Expect(settings.Server.Addr).To(Equal("127.0.0.1:0"))
	})
})
