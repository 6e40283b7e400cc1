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

package pathfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Match(t *testing.T) {
	t.Parallel()

	var f Filter
	f.Exact("/healthz", "/metrics")
	f.Prefix("/debug/", "")
	require.NoError(t, f.Pattern(`^/v[0-9]+/internal/`))

	tests := []struct {
		path string
		want bool
	}{
		{"/healthz", true},
		{"/healthz/deep", false},
		{"/metrics", true},
		{"/debug/pprof", true},
		{"/debug", false},
		{"/v2/internal/state", true},
		{"/v2/public/state", false},
		{"/", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, f.Match(tt.path))
		})
	}
}

func TestFilter_ZeroValue(t *testing.T) {
	t.Parallel()

	var f Filter
	assert.True(t, f.Empty())
	assert.False(t, f.Match("/"))

	var nilFilter *Filter
	assert.True(t, nilFilter.Empty())
	assert.False(t, nilFilter.Match("/healthz"))
}

func TestFilter_PatternErrors(t *testing.T) {
	t.Parallel()

	var f Filter
	err := f.Pattern("(", `^/admin`, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `path pattern "("`)
	assert.Contains(t, err.Error(), `path pattern "["`)

	assert.True(t, f.Match("/admin/users"))
	assert.False(t, f.Empty())
}
