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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// DefaultDirMode is used for the storage directories when no mode is given.
const DefaultDirMode os.FileMode = 0o777

// TempDir is the subdirectory of the root holding in-progress writes.
const TempDir = "tmp"

var errRolledBack = errors.New("upload: file rolled back")

// FileStorage writes files below a root directory.
//
// Each file is written to root/tmp/<uuid><ext> and renamed to
// root/<uuid><ext> once its stream ends without error.
type FileStorage struct {
	root string
	temp string
}

// NewFileStorage creates root and its temp subdirectory with mode when
// they do not exist. A zero mode means [DefaultDirMode].
func NewFileStorage(root string, mode os.FileMode) (*FileStorage, error) {
	if root == "" {
		return nil, ErrRootUndefined
	}
	if mode == 0 {
		mode = DefaultDirMode
	}

	s := &FileStorage{root: root, temp: filepath.Join(root, TempDir)}
	for _, dir := range []string{s.root, s.temp} {
		if err := os.MkdirAll(dir, mode); err != nil {
			return nil, fmt.Errorf("create storage directory %s: %w", dir, err)
		}
	}

	return s, nil
}

// Root returns the directory final files are moved to.
func (s *FileStorage) Root() string {
	return s.root
}

// Persist implements [Storage].
func (s *FileStorage) Persist(meta FileMeta) Task {
	id := uuid.NewString()
	name := id + meta.Extension
	return &fileTask{
		meta:      meta,
		id:        id,
		temporary: filepath.Join(s.temp, name),
		final:     filepath.Join(s.root, name),
	}
}

type fileTask struct {
	meta      FileMeta
	id        string
	temporary string
	final     string

	mu      sync.Mutex
	out     *os.File
	aborted bool
}

func (t *fileTask) Run(src io.Reader) (*File, error) {
	t.mu.Lock()
	if t.aborted {
		t.mu.Unlock()
		return nil, errRolledBack
	}
	out, err := os.OpenFile(t.temporary, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o666)
	if err != nil {
		t.mu.Unlock()
		return nil, fmt.Errorf("create %s: %w", filepath.Base(t.temporary), err)
	}
	t.out = out
	t.mu.Unlock()

	n, copyErr := io.Copy(out, src)
	closeErr := out.Close()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.out = nil

	if copyErr != nil {
		return nil, copyErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close %s: %w", filepath.Base(t.temporary), closeErr)
	}
	if t.aborted {
		return nil, errRolledBack
	}
	if err := os.Rename(t.temporary, t.final); err != nil {
		return nil, fmt.Errorf("move %s: %w", filepath.Base(t.final), err)
	}

	f := newFile(t.meta)
	f.Path = t.final
	f.Size = n
	f.Unit = "B"
	f.UUID = t.id

	return f, nil
}

func (t *fileTask) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.aborted = true
	if t.out != nil {
		_ = t.out.Close()
	}
	_ = os.Remove(t.temporary)
	_ = os.Remove(t.final)
}
