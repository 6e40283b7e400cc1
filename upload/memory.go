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

package upload

import (
	"bytes"
	"io"
	"sync"
)

// MemoryStorage buffers each file in memory.
type MemoryStorage struct{}

// NewMemoryStorage returns a memory-backed storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Persist implements [Storage].
func (MemoryStorage) Persist(meta FileMeta) Task {
	return &memoryTask{meta: meta}
}

type memoryTask struct {
	meta FileMeta

	mu      sync.Mutex
	file    *File
	aborted bool
}

func (t *memoryTask) Run(src io.Reader) (*File, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.aborted {
		return nil, errRolledBack
	}

	f := newFile(t.meta)
	f.Data = buf.Bytes()
	f.Size = int64(len(f.Data))
	t.file = f

	return f, nil
}

func (t *memoryTask) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.aborted = true
	if t.file != nil {
		t.file.Data = nil
		t.file = nil
	}
}
