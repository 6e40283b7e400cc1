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

// Package compiler turns path templates into matchers with named captures.
//
// The router compiles every registered path once, at registration time,
// and evaluates the resulting [Matcher] against each request path.
//
// # Template Syntax
//
//	/users/:id            one segment, captured as "id"
//	/users/:id(\d+)       one segment matching a custom expression
//	/files/:name?         optional segment
//	/static/:filename*    zero or more segments
//	/blob/:key+           one or more segments
//	/legacy/(.*)          unnamed capture, keyed "0"
//
// Raw expressions are accepted through [CompileRegexp] and used unmodified.
//
// Example:
//
//	m := compiler.MustCompile("/api/v1/:tag/:id")
//	params, ok := m.Match("/api/v1/go/5")
//	// ok == true, params == compiler.Params{"tag": "go", "id": "5"}
package compiler
