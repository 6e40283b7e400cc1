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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// Default limits.
const (
	DefaultFieldNameSize  = 100
	DefaultFieldValueSize = 1 << 20
	DefaultFileSize       = 20480000
)

// sniffLen is how much of a part is inspected when it carries no Content-Type.
const sniffLen = 3072

// Config configures an [Uploader].
//
// Sizes of zero select the defaults; a negative size or any count of zero
// means unlimited.
type Config struct {
	// Storage overrides the backend. When nil, a [FileStorage] is used if
	// Root is set and a [MemoryStorage] otherwise.
	Storage Storage `config:"-"`

	// Root is the directory files are saved to.
	Root string `config:"root"`

	// Mode is the permission of the created directories.
	Mode os.FileMode `config:"mode"`

	// AllowedFileExts restricts file extensions; nil allows all.
	AllowedFileExts []string `config:"allowed_file_exts"`

	// AllowedFileNames restricts the form fields files may be sent in; nil allows all.
	AllowedFileNames []string `config:"allowed_file_names"`

	// Multiple allows several files in one field.
	Multiple bool `config:"multiple"`

	FieldNameSize  int64 `config:"field_name_size"`
	FieldValueSize int64 `config:"field_value_size"`
	FieldsCount    int   `config:"fields_count"`
	FileSize       int64 `config:"file_size"`
	FilesCount     int   `config:"files_count"`
	PartsCount     int   `config:"parts_count"`
}

// Uploader parses multipart requests under a policy and persists the files.
// An Uploader is safe for concurrent use.
type Uploader struct {
	storage        Storage
	exts           []string
	fields         []string
	multiple       bool
	fieldNameSize  int64
	fieldValueSize int64
	fieldsCount    int
	fileSize       int64
	filesCount     int
	partsCount     int
}

// New builds an Uploader. It fails only when a file storage cannot create
// its directories.
func New(cfg Config) (*Uploader, error) {
	storage := cfg.Storage
	if storage == nil {
		if cfg.Root != "" {
			fs, err := NewFileStorage(cfg.Root, cfg.Mode)
			if err != nil {
				return nil, err
			}
			storage = fs
		} else {
			storage = NewMemoryStorage()
		}
	}

	u := &Uploader{
		storage:        storage,
		exts:           normalizeExts(cfg.AllowedFileExts),
		fields:         normalizeList(cfg.AllowedFileNames),
		multiple:       cfg.Multiple,
		fieldNameSize:  sizeOrDefault(cfg.FieldNameSize, DefaultFieldNameSize),
		fieldValueSize: sizeOrDefault(cfg.FieldValueSize, DefaultFieldValueSize),
		fieldsCount:    cfg.FieldsCount,
		fileSize:       sizeOrDefault(cfg.FileSize, DefaultFileSize),
		filesCount:     cfg.FilesCount,
		partsCount:     cfg.PartsCount,
	}

	return u, nil
}

// MustNew is like New but panics on error.
func MustNew(cfg Config) *Uploader {
	u, err := New(cfg)
	if err != nil {
		panic("upload.MustNew: " + err.Error())
	}
	return u
}

// Storage returns the backend files are persisted to.
func (u *Uploader) Storage() Storage {
	return u.storage
}

// Parse consumes the multipart body of r.
//
// Either every file is persisted and the result is returned, or the
// request fails and every write started for it is rolled back, including
// those that had already completed. Policy violations are returned as
// [*Error]; anything else is an unexpected failure. The caller may undo a
// successful parse with [Result.Rollback].
func (u *Uploader) Parse(ctx context.Context, r *http.Request) (*Result, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return nil, ErrUnsupportedType
	}

	g, gctx := errgroup.WithContext(ctx)
	s := &session{
		uploader: u,
		result:   newResult(u.multiple),
		group:    g,
	}

	err = s.consume(gctx, multipart.NewReader(r.Body, params["boundary"]))
	if waitErr := g.Wait(); err == nil {
		err = waitErr
	}
	if err != nil {
		s.rollback()
		return nil, err
	}

	s.result.rollbacks = s.rollbacks
	return s.result, nil
}

// session is the state of one Parse call.
type session struct {
	uploader *Uploader
	group    *errgroup.Group

	parts, files, fields int

	mu        sync.Mutex
	result    *Result
	rollbacks []func()
}

func (s *session) consume(ctx context.Context, mr *multipart.Reader) error {
	u := s.uploader
	for {
		// A failed write cancels ctx with that write's error as the cause.
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read multipart: %w", err)
		}

		s.parts++
		if u.partsCount > 0 && s.parts > u.partsCount {
			return ErrTooManyParts
		}

		if isFilePart(part) {
			err = s.file(part)
		} else {
			err = s.field(part)
		}
		_ = part.Close()
		if err != nil {
			return err
		}
	}
}

func (s *session) field(part *multipart.Part) error {
	u := s.uploader
	s.fields++
	if u.fieldsCount > 0 && s.fields > u.fieldsCount {
		return ErrTooManyFields
	}

	name := part.FormName()
	if u.fieldNameSize > 0 && int64(len(name)) > u.fieldNameSize {
		return ErrFieldNameTooLarge
	}

	var src io.Reader = part
	if u.fieldValueSize > 0 {
		src = io.LimitReader(part, u.fieldValueSize+1)
	}
	value, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("read field %q: %w", name, err)
	}
	if u.fieldValueSize > 0 && int64(len(value)) > u.fieldValueSize {
		return ErrFieldValueTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.result.Files[name]; ok {
		return ErrFieldConflict
	}
	s.result.Fields[name] = string(value)

	return nil
}

func (s *session) file(part *multipart.Part) error {
	u := s.uploader
	s.files++
	if u.filesCount > 0 && s.files > u.filesCount {
		return ErrTooManyFiles
	}

	name, filename := part.FormName(), part.FileName()
	if name == "" || filename == "" {
		return ErrEmptyFilename
	}

	s.mu.Lock()
	_, seen := s.result.Files[name]
	_, isField := s.result.Fields[name]
	s.mu.Unlock()

	if seen && !u.multiple {
		return ErrMultipleNotAllowed
	}
	if u.fields != nil && !slices.Contains(u.fields, name) {
		return ErrFieldNotAllowed
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || (u.exts != nil && !slices.Contains(u.exts, ext)) {
		return ErrFileTypeNotAllowed
	}
	if isField {
		return ErrFieldConflict
	}

	br := bufio.NewReaderSize(part, sniffLen)
	mimeType := part.Header.Get("Content-Type")
	if mimeType == "" {
		head, _ := br.Peek(sniffLen)
		mimeType = mimetype.Detect(head).String()
	}

	task := u.storage.Persist(FileMeta{
		Field:     name,
		Filename:  filename,
		MimeType:  mimeType,
		Extension: ext,
	})

	s.mu.Lock()
	s.rollbacks = append(s.rollbacks, task.Rollback)
	slot := s.result.reserve(name)
	s.mu.Unlock()

	pr, pw := io.Pipe()
	s.group.Go(func() error {
		f, err := task.Run(pr)
		// Unblocks the writer if Run returned before draining the pipe.
		_ = pr.CloseWithError(err)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.result.Files[name][slot] = f
		s.mu.Unlock()
		return nil
	})

	return copyLimited(pw, br, u.fileSize)
}

// copyLimited streams src into pw, failing with ErrFileTooLarge once more
// than limit bytes arrive. pw is always closed.
func copyLimited(pw *io.PipeWriter, src io.Reader, limit int64) error {
	var (
		n   int64
		err error
	)
	if limit > 0 {
		n, err = io.CopyN(pw, src, limit+1)
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if err == nil && n > limit {
			err = ErrFileTooLarge
		}
	} else {
		_, err = io.Copy(pw, src)
	}

	if err != nil {
		_ = pw.CloseWithError(err)
		if errors.Is(err, io.ErrClosedPipe) {
			// The storage side failed first; its error is reported by Wait.
			return nil
		}
		return err
	}
	return pw.Close()
}

func (s *session) rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fn := range s.rollbacks {
		fn()
	}
	s.rollbacks = nil
}

// isFilePart reports whether the part's Content-Disposition carries a
// filename parameter, even an empty one.
func isFilePart(part *multipart.Part) bool {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return false
	}
	_, ok := params["filename"]
	return ok
}

func normalizeExts(exts []string) []string {
	list := normalizeList(exts)
	if list == nil {
		return nil
	}
	for i, ext := range list {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		list[i] = ext
	}
	return list
}

// normalizeList splits comma separated entries and drops blanks. A nil or
// "*" list means no restriction and yields nil.
func normalizeList(values []string) []string {
	if values == nil {
		return nil
	}
	list := make([]string, 0, len(values))
	for _, v := range values {
		for _, item := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '，' }) {
			item = strings.TrimSpace(item)
			if item == "*" {
				return nil
			}
			if item != "" {
				list = append(list, item)
			}
		}
	}
	return list
}

func sizeOrDefault(v, def int64) int64 {
	switch {
	case v == 0:
		return def
	case v < 0:
		return 0
	default:
		return v
	}
}
