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

	"github.com/BurntSushi/toml"
)

// TypeTOML is the TOML format.
const TypeTOML Type = "toml"

func init() {
	RegisterEncoder(TypeTOML, TOMLCodec{})
	RegisterDecoder(TypeTOML, TOMLCodec{})
}

// TOMLCodec uses BurntSushi/toml.
type TOMLCodec struct{}

// Encode implements [Encoder].
func (TOMLCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode implements [Decoder].
func (TOMLCodec) Decode(data []byte, v any) error {
	_, err := toml.Decode(string(data), v)
	return err
}
