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

// Package upload parses multipart/form-data requests under a policy and
// persists the contained files through a pluggable [Storage].
//
// Parts are read in order. Each file part is streamed to its own storage
// task, so writes of different files overlap; the request succeeds only
// when every task succeeds. Any policy violation or storage failure stops
// the parse, waits for tasks already started, and then rolls back every
// file of the request, including the ones that were fully written.
//
// Basic usage:
//
//	u, err := upload.New(upload.Config{
//	    Root:            "/var/lib/uploads",
//	    AllowedFileExts: []string{".png", ".jpg"},
//	    FileSize:        5 << 20,
//	})
//	if err != nil {
//	    return err
//	}
//	result, err := u.Parse(ctx, req)
//	if errors.Is(err, upload.ErrFileTooLarge) {
//	    // ...
//	}
//	avatar := result.File("avatar")
package upload
