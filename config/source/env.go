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

package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"rivaas.dev/dispatch/config/codec"
)

// OSEnvVar reads the environment variables starting with a prefix. The
// prefix is stripped and the rest of the name is split on
// [codec.EnvSeparator]:
//
//	DISPATCH_SERVER__ADDR=:9090        -> server.addr
//	DISPATCH_UPLOAD__FILE_SIZE=1048576 -> upload.file_size
type OSEnvVar struct {
	prefix  string
	environ func() []string
}

// NewOSEnvVar creates an environment source for prefix, e.g. "DISPATCH_".
func NewOSEnvVar(prefix string) *OSEnvVar {
	return &OSEnvVar{prefix: prefix, environ: os.Environ}
}

// Load implements config.Source.
func (e *OSEnvVar) Load(context.Context) (map[string]any, error) {
	var lines []string
	for _, kv := range e.environ() {
		if rest, ok := strings.CutPrefix(kv, e.prefix); ok {
			lines = append(lines, rest)
		}
	}

	var conf map[string]any
	if err := (codec.EnvVarCodec{}).Decode([]byte(strings.Join(lines, "\n")), &conf); err != nil {
		return nil, fmt.Errorf("failed to decode environment variables: %w", err)
	}
	return conf, nil
}

// String names the source in errors.
func (e *OSEnvVar) String() string {
	return "env:" + e.prefix
}
