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

// Package codec converts configuration documents to and from generic maps.
//
// Codecs register themselves by [Type] in init. [Decoder] and [Encoder]
// look them up:
//
//	dec, err := codec.GetDecoder(codec.TypeYAML)
package codec

import (
	"fmt"
	"sync"
)

// Type names a document format.
type Type string

// Encoder turns a value into a document.
type Encoder interface {
	Encode(v any) ([]byte, error)
}

// Decoder turns a document into the value pointed to by v.
type Decoder interface {
	Decode(data []byte, v any) error
}

var (
	mu       sync.RWMutex
	encoders = map[Type]Encoder{}
	decoders = map[Type]Decoder{}
)

// RegisterEncoder makes an encoder available under name.
func RegisterEncoder(name Type, enc Encoder) {
	mu.Lock()
	defer mu.Unlock()
	encoders[name] = enc
}

// RegisterDecoder makes a decoder available under name.
func RegisterDecoder(name Type, dec Decoder) {
	mu.Lock()
	defer mu.Unlock()
	decoders[name] = dec
}

// GetEncoder returns the encoder registered under name.
func GetEncoder(name Type) (Encoder, error) {
	mu.RLock()
	defer mu.RUnlock()
	enc, ok := encoders[name]
	if !ok {
		return nil, fmt.Errorf("encoder not found for type: %s", name)
	}
	return enc, nil
}

// GetDecoder returns the decoder registered under name.
func GetDecoder(name Type) (Decoder, error) {
	mu.RLock()
	defer mu.RUnlock()
	dec, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("decoder not found for type: %s", name)
	}
	return dec, nil
}
