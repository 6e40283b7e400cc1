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

package app

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/logging"
)

func TestHooks_ShutdownOrder(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testSettings(t))
	var order []int
	a.OnShutdown(func(context.Context) { order = append(order, 1) })
	a.OnShutdown(func(context.Context) { order = append(order, 2) })
	a.OnShutdown(func(context.Context) { order = append(order, 3) })

	a.runShutdownHooks(t.Context())
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestHooks_ShutdownRunsRegisteredSnapshot(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testSettings(t))
	var order []string
	a.OnShutdown(func(context.Context) { order = append(order, "first") })
	a.OnShutdown(func(context.Context) {
		order = append(order, "second")
		a.OnShutdown(func(context.Context) { order = append(order, "late") })
	})

	a.runShutdownHooks(t.Context())
	assert.Equal(t, []string{"second", "first"}, order)

	order = nil
	a.runShutdownHooks(t.Context())
	assert.Equal(t, []string{"late", "second", "first"}, order)
}

func TestHooks_StartStopsOnError(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testSettings(t))
	errBoom := errors.New("boom")
	calls := 0
	a.OnStart(func(context.Context) error { calls++; return nil })
	a.OnStart(func(context.Context) error { calls++; return errBoom })
	a.OnStart(func(context.Context) error { calls++; return nil })

	err := a.Run(t.Context())
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "startup failed")
	assert.Equal(t, 2, calls)
	assert.Nil(t, a.Addr())
}

func TestReload(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testSettings(t))
	assert.False(t, a.hasReloadHooks())
	require.NoError(t, a.Reload(t.Context()))

	errFirst := errors.New("first")
	errSecond := errors.New("second")
	a.OnReload(func(context.Context) error { return errFirst })
	a.OnReload(func(context.Context) error { return a.SetLogLevel("debug") })
	a.OnReload(func(context.Context) error { return errSecond })
	assert.True(t, a.hasReloadHooks())

	err := a.Reload(t.Context())
	require.ErrorIs(t, err, errFirst)
	require.ErrorIs(t, err, errSecond)
	assert.Equal(t, logging.LevelDebug, a.logger.Level())
}

func TestSetLogLevel(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testSettings(t))
	require.NoError(t, a.SetLogLevel("warn"))
	assert.Equal(t, logging.LevelWarn, a.logger.Level())
	require.ErrorIs(t, a.SetLogLevel("verbose"), logging.ErrInvalidLevel)
	assert.Equal(t, logging.LevelWarn, a.logger.Level())
}

func TestBanner(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	s.Logging.Environment = "production"
	s.Metrics.Enabled = true
	var out bytes.Buffer
	a := newTestApp(t, s, WithBannerOutput(&out))
	t.Cleanup(func() { a.shutdownObservability(context.Background()) })

	a.printBanner(":8080", "HTTP")
	banner := out.String()
	assert.Contains(t, banner, "Service")
	assert.Contains(t, banner, "production")
	assert.Contains(t, banner, "http://0.0.0.0:8080")
	assert.Contains(t, banner, "http://0.0.0.0:8080/metrics")
	assert.Contains(t, banner, "Disabled")
	assert.NotContains(t, banner, "\x1b[")
}

func TestBanner_DevelopmentRoutes(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	a := newTestApp(t, testSettings(t), WithBannerOutput(&out))
	a.printBanner("127.0.0.1:9000", "HTTPS")

	banner := out.String()
	assert.Contains(t, banner, "https://127.0.0.1:9000")
	assert.Contains(t, banner, "Methods")
	assert.Contains(t, banner, "/healthz")
	assert.Contains(t, banner, "/readyz")
}

func TestBanner_Hidden(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	s.Server.HideBanner = true
	var out bytes.Buffer
	a := newTestApp(t, s, WithBannerOutput(&out))
	a.printBanner(":8080", "HTTP")
	assert.Empty(t, out.String())
}

func TestPrintRoutes(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	a := newTestApp(t, testSettings(t))
	a.PrintRoutes(&out)
	assert.Contains(t, out.String(), "/healthz")
	assert.Contains(t, out.String(), "GET")
}
