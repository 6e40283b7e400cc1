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

package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
)

// Run starts the server on the configured address and blocks until ctx is
// canceled or the server fails. Start hooks run first; on cancellation the
// shutdown hooks run, the server drains within the shutdown timeout and
// the metrics and tracing providers are flushed.
//
// Signal handling belongs to the caller:
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer cancel()
//	err := a.Run(ctx)
func (a *App) Run(ctx context.Context) error {
	if err := a.runStartHooks(ctx); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	s := a.settings.Server
	secure := s.TLSCert != ""
	protocol := "HTTP"
	if secure {
		protocol = "HTTPS"
	}

	srv, err := a.router.Server(s.Addr, secure)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("%s listen: %w", protocol, err)
	}
	a.setAddr(ln.Addr())

	a.printBanner(ln.Addr().String(), protocol)
	logger := a.Logger()
	logger.InfoContext(ctx, "server starting", "protocol", protocol, "addr", ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		var err error
		if secure {
			err = srv.ServeTLS(ln, s.TLSCert, s.TLSKey)
		} else {
			err = srv.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("%s server failed: %w", protocol, err)
		}
	}()

	var reload <-chan os.Signal
	if a.hasReloadHooks() {
		ch, stop := reloadSignal()
		defer stop()
		reload = ch
	}

	for running := true; running; {
		select {
		case err := <-serveErr:
			a.shutdownObservability(context.Background())
			return err
		case <-reload:
			if err := a.Reload(ctx); err != nil {
				logger.ErrorContext(ctx, "reload failed", "err", err)
			} else {
				logger.InfoContext(ctx, "configuration reloaded")
			}
		case <-ctx.Done():
			logger.InfoContext(ctx, "server shutting down", "protocol", protocol, "reason", context.Cause(ctx))
			running = false
		}
	}

	// ctx is already done; the drain gets a fresh deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	a.runShutdownHooks(shutdownCtx)
	if err := a.router.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s server forced to shutdown: %w", protocol, err)
	}
	a.shutdownObservability(shutdownCtx)

	logger.InfoContext(shutdownCtx, "server exited", "protocol", protocol)
	return nil
}

func (a *App) shutdownObservability(ctx context.Context) {
	logger := a.Logger()
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", "err", err)
		}
	}
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			logger.Warn("metrics shutdown failed", "err", err)
		}
	}
}

// Addr returns the address the server listens on, or nil before [App.Run]
// has bound it. With a ":0" address it reports the chosen port.
func (a *App) Addr() net.Addr {
	a.addrMu.Lock()
	defer a.addrMu.Unlock()
	return a.addr
}

// Ready is closed once the server listens.
func (a *App) Ready() <-chan struct{} { return a.ready }

func (a *App) setAddr(addr net.Addr) {
	a.addrMu.Lock()
	a.addr = addr
	a.addrMu.Unlock()
	a.readyOnce.Do(func() { close(a.ready) })
}
