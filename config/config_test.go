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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/config/codec"
)

type staticSource map[string]any

func (s staticSource) Load(context.Context) (map[string]any, error) { return s, nil }

type failingSource struct{ err error }

func (s failingSource) Load(context.Context) (map[string]any, error) { return nil, s.err }

type recordingDumper struct{ got map[string]any }

func (d *recordingDumper) Dump(_ context.Context, values map[string]any) error {
	d.got = values
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MergesInOrder(t *testing.T) {
	t.Parallel()

	base := writeFile(t, "base.yaml", "server:\n  host: localhost\n  port: 8080\n  timeout: 30\n")
	override := writeFile(t, "prod.toml", "[server]\nport = 80\n")

	cfg, err := New(
		WithFile(base),
		WithFile(override),
		WithSource(staticSource{"SERVER": map[string]any{"Host": "0.0.0.0"}}),
	)
	require.NoError(t, err)
	require.NoError(t, cfg.Load(t.Context()))

	assert.Equal(t, "0.0.0.0", cfg.String("server.host"))
	assert.Equal(t, 80, cfg.Int("server.port"))
	assert.Equal(t, 30, cfg.Int("SERVER.TIMEOUT"))
}

func TestLoad_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	cfg := MustNew(WithSource(staticSource{"a": 1}), WithSource(failingSource{boom}))

	err := cfg.Load(t.Context())
	require.ErrorIs(t, err, boom)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "source[1]", cerr.Source)
	assert.Equal(t, "load", cerr.Operation)
	assert.Empty(t, cfg.Values())
}

func TestLoad_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.ErrorIs(t, MustNew(WithSource(staticSource{})).Load(ctx), context.Canceled)
}

func TestNew_OptionErrors(t *testing.T) {
	t.Parallel()

	_, err := New(WithFile("settings.ini"))
	require.Error(t, err)

	_, err = New(WithBinding(struct{}{}))
	require.Error(t, err)

	_, err = New(WithJSONSchema([]byte("{")))
	require.Error(t, err)

	assert.Panics(t, func() { MustNew(WithSource(nil)) })
}

func TestLoad_JSONSchema(t *testing.T) {
	t.Parallel()

	schema := []byte(`{
		"type": "object",
		"properties": {
			"server": {
				"type": "object",
				"properties": {"port": {"type": "integer", "maximum": 65535}}
			}
		}
	}`)

	ok := MustNew(WithJSONSchema(schema), WithContent([]byte("server:\n  port: 8080\n"), codec.TypeYAML))
	require.NoError(t, ok.Load(t.Context()))

	bad := MustNew(WithJSONSchema(schema), WithContent([]byte(`{"server":{"port":70000}}`), codec.TypeJSON))
	err := bad.Load(t.Context())
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "json-schema", cerr.Source)
}

func TestLoad_CustomValidator(t *testing.T) {
	t.Parallel()

	cfg := MustNew(
		WithSource(staticSource{"mode": "chaos"}),
		WithValidator(func(m map[string]any) error {
			if m["mode"] == "chaos" {
				return errors.New("unsupported mode")
			}
			return nil
		}),
	)
	require.ErrorContains(t, cfg.Load(t.Context()), "unsupported mode")
}

type bound struct {
	Name    string        `config:"name" default:"svc" validate:"required"`
	Port    int           `config:"port" default:"8080" validate:"gt=0,lt=65536"`
	Timeout time.Duration `config:"timeout" default:"5s"`
	Tags    []string      `config:"tags" default:"a,b"`
	Debug   bool          `config:"debug"`
	Nested  struct {
		Ratio float64 `config:"ratio" default:"0.5"`
	} `config:"nested"`
}

func TestBinding(t *testing.T) {
	t.Parallel()

	var b bound
	cfg := MustNew(
		WithBinding(&b),
		WithSource(staticSource{"port": "9090", "timeout": "2m", "debug": "true", "tags": "x,y"}),
	)
	require.NoError(t, cfg.Load(t.Context()))

	assert.Equal(t, "svc", b.Name)
	assert.Equal(t, 9090, b.Port)
	assert.Equal(t, 2*time.Minute, b.Timeout)
	assert.True(t, b.Debug)
	assert.Equal(t, []string{"x", "y"}, b.Tags)
	assert.InDelta(t, 0.5, b.Nested.Ratio, 0)
}

func TestBinding_ValidationKeepsPreviousValue(t *testing.T) {
	t.Parallel()

	var b bound
	src := staticSource{"port": 8081}
	cfg := MustNew(WithBinding(&b), WithSource(src))
	require.NoError(t, cfg.Load(t.Context()))
	require.Equal(t, 8081, b.Port)

	src["port"] = 70000
	err := cfg.Load(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
	assert.Equal(t, 8081, b.Port)
}

func TestGet(t *testing.T) {
	t.Parallel()

	cfg := MustNew(WithSource(staticSource{
		"server": map[string]any{"port": "8080", "timeout": "3s", "hosts": "a,b"},
		"flag":   "yes",
	}))
	require.NoError(t, cfg.Load(t.Context()))

	assert.Equal(t, 8080, Get[int](cfg, "server.port"))
	assert.Equal(t, int64(8080), Get[int64](cfg, "server.port"))
	assert.Equal(t, 3*time.Second, cfg.Duration("server.timeout"))
	assert.Equal(t, []string{"a", "b"}, cfg.StringSlice("server.hosts"))
	assert.Equal(t, "fallback", GetOr(cfg, "server.missing", "fallback"))
	assert.Equal(t, 7, GetOr(cfg, "flag", 7))

	_, err := GetE[bool](cfg, "server.port.deeper")
	require.Error(t, err)
	_, err = GetE[complex64](cfg, "flag")
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	t.Parallel()

	d := &recordingDumper{}
	out := filepath.Join(t.TempDir(), "effective.json")
	cfg := MustNew(WithSource(staticSource{"a": 1}), WithDumper(d), WithFileDumper(out))
	require.NoError(t, cfg.Load(t.Context()))
	require.NoError(t, cfg.Dump(t.Context()))

	assert.Equal(t, map[string]any{"a": 1}, d.got)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
}

func TestOptionalFile(t *testing.T) {
	t.Parallel()

	cfg := MustNew(WithOptionalFile(filepath.Join(t.TempDir(), "absent.yaml")))
	require.NoError(t, cfg.Load(t.Context()))
	assert.Empty(t, cfg.Values())
}
