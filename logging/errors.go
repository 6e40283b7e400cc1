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

package logging

import "errors"

var (
	// ErrInvalidHandler indicates an unsupported handler type was specified.
	// Valid types: JSONHandler, TextHandler.
	ErrInvalidHandler = errors.New("invalid handler type")

	// ErrInvalidLevel indicates a level name [ParseLevel] does not know.
	ErrInvalidLevel = errors.New("invalid log level")

	// ErrNilOutput indicates a nil writer was given to [WithOutput].
	ErrNilOutput = errors.New("output writer cannot be nil")
)
