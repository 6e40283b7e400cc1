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

package codec

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// TypeEnvVar is a newline separated list of KEY=value pairs.
const TypeEnvVar Type = "env_var"

// EnvSeparator splits a variable name into nested keys. A single
// underscore stays part of the key, so UPLOAD__FILE_SIZE becomes
// upload.file_size.
const EnvSeparator = "__"

func init() {
	RegisterDecoder(TypeEnvVar, EnvVarCodec{})
}

// EnvVarCodec decodes environment variables into a nested map. Values are
// kept as strings except booleans and numbers, which are converted with
// spf13/cast.
type EnvVarCodec struct{}

// Encode always fails; environment variables are read only.
func (EnvVarCodec) Encode(any) ([]byte, error) {
	return nil, errors.New("encoding to environment variables is not supported")
}

// Decode implements [Decoder]. v must be a *map[string]any.
func (EnvVarCodec) Decode(data []byte, v any) error {
	ptr, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("env codec: unsupported target %T", v)
	}
	conf := make(map[string]any)

	for line := range bytes.SplitSeq(data, []byte("\n")) {
		key, value, found := strings.Cut(string(line), "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}

		var parts []string
		for p := range strings.SplitSeq(strings.ToLower(key), EnvSeparator) {
			if p = strings.Trim(p, "_"); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}

		current := conf
		for _, p := range parts[:len(parts)-1] {
			next, ok := current[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[p] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = scalar(strings.TrimSpace(value))
	}

	*ptr = conf
	return nil
}

// scalar converts booleans and integers so that JSON schema checks see
// typed values. Numbers with a leading zero stay strings.
func scalar(s string) any {
	switch strings.ToLower(s) {
	case "true", "false":
		return cast.ToBool(s)
	}
	if s == "0" {
		return int64(0)
	}
	if strings.HasPrefix(s, "0") {
		return s
	}
	if n, err := cast.ToInt64E(s); err == nil {
		return n
	}
	return s
}
