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

import "io"

// FileMeta describes one incoming file part.
type FileMeta struct {
	Field     string // Form field name
	Filename  string // Original file name
	MimeType  string
	Extension string // Lower-cased, with leading dot
}

// File is a persisted file.
type File struct {
	Field     string `json:"name"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Size      int64  `json:"size"`

	// Filesystem storage only.
	Unit string `json:"unit,omitempty"`
	Path string `json:"path,omitempty"`
	UUID string `json:"uuid,omitempty"`

	// Memory storage only.
	Data []byte `json:"-"`
}

// Storage persists uploaded byte streams.
//
// Persist must not block: it reserves whatever the backend needs to undo
// the write and returns a [Task]. The uploader runs tasks concurrently and
// keeps every task's rollback until the whole request has settled.
type Storage interface {
	Persist(meta FileMeta) Task
}

// Task is one pending file write.
type Task interface {
	// Run consumes src until EOF or error and returns the stored file.
	// It is called exactly once.
	Run(src io.Reader) (*File, error)

	// Rollback undoes any effect of Run. It is best-effort, never fails,
	// and is safe to call whether Run finished, failed or never started.
	Rollback()
}

func newFile(meta FileMeta) *File {
	return &File{
		Field:     meta.Field,
		Filename:  meta.Filename,
		MimeType:  meta.MimeType,
		Extension: meta.Extension,
	}
}
