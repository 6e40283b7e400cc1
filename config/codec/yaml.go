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

import "github.com/goccy/go-yaml"

// TypeYAML is the YAML format.
const TypeYAML Type = "yaml"

func init() {
	RegisterEncoder(TypeYAML, YAMLCodec{})
	RegisterDecoder(TypeYAML, YAMLCodec{})
}

// YAMLCodec uses goccy/go-yaml.
type YAMLCodec struct{}

// Encode implements [Encoder].
func (YAMLCodec) Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// Decode implements [Decoder].
func (YAMLCodec) Decode(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}
