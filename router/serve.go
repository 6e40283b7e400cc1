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
	"context"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Serve starts the HTTP server on addr and blocks until it exits.
// The router is activated first, so activation errors surface here rather
// than on the first request.
//
// Example:
//
//	go func() {
//	    if err := r.Serve(":8080"); err != nil && err != http.ErrServerClosed {
//	        log.Fatal(err)
//	    }
//	}()
//	...
//	r.Shutdown(ctx)
//
// With H2C enabled (dev/behind LB only):
//
//	r := router.MustNew(router.WithH2C(true))
//	r.Serve(":8080")
func (r *Router) Serve(addr string) error {
	srv, err := r.Server(addr, false)
	if err != nil {
		return err
	}
	return srv.ListenAndServe()
}

// ServeTLS starts the HTTPS server. HTTP/2 is negotiated via ALPN.
func (r *Router) ServeTLS(addr, certFile, keyFile string) error {
	srv, err := r.Server(addr, true)
	if err != nil {
		return err
	}
	return srv.ListenAndServeTLS(certFile, keyFile)
}

// Server activates the router and returns the *http.Server that Serve would
// run, configured with the server timeouts and handler wrappers. The server
// is the one stopped by [Router.Shutdown]. H2C is only applied when tls is
// false.
func (r *Router) Server(addr string, tls bool) (*http.Server, error) {
	if err := r.Activate(); err != nil {
		return nil, err
	}

	h := r.outerHandler()
	if r.enableH2C && !tls {
		h = h2c.NewHandler(h, &http2.Server{})
		r.emit(DiagH2CEnabled, "H2C enabled; use only in dev or behind a trusted LB", nil)
	}
	return r.newServer(addr, h), nil
}

// outerHandler returns the router wrapped by [WithHandlerWrapper].
func (r *Router) outerHandler() http.Handler {
	h := http.Handler(r)
	for i := len(r.wrappers) - 1; i >= 0; i-- {
		h = r.wrappers[i](h)
	}
	return h
}

func (r *Router) newServer(addr string, h http.Handler) *http.Server {
	timeouts := r.serverTimeouts
	if timeouts == nil {
		timeouts = defaultServerTimeouts()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: timeouts.readHeader,
		ReadTimeout:       timeouts.read,
		WriteTimeout:      timeouts.write,
		IdleTimeout:       timeouts.idle,
	}

	r.serverMu.Lock()
	r.server = srv
	r.serverMu.Unlock()
	return srv
}

// Shutdown gracefully shuts down the server without interrupting active
// connections. It returns nil if no server is running.
func (r *Router) Shutdown(ctx context.Context) error {
	r.serverMu.Lock()
	srv := r.server
	r.server = nil
	r.serverMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
