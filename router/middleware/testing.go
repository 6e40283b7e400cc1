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

package middleware

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// NewTestLogger returns a logger that discards everything.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewCaptureLogger returns a JSON logger writing to w.
//
// Example:
//
//	var buf bytes.Buffer
//	r.Use(accesslog.New(accesslog.WithLogger(middleware.NewCaptureLogger(&buf))))
func NewCaptureLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Record is a captured log record with its attributes flattened.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// RecordingHandler keeps every record in memory. It is safe for
// concurrent use.
type RecordingHandler struct {
	mu      *sync.Mutex
	records *[]Record
	attrs   []slog.Attr
}

// NewRecordingHandler returns an empty RecordingHandler.
func NewRecordingHandler() *RecordingHandler {
	return &RecordingHandler{mu: &sync.Mutex{}, records: &[]Record{}}
}

// Enabled implements slog.Handler.
func (h *RecordingHandler) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (h *RecordingHandler) Handle(_ context.Context, r slog.Record) error {
	rec := Record{Level: r.Level, Message: r.Message, Attrs: make(map[string]any, len(h.attrs)+r.NumAttrs())}
	for _, a := range h.attrs {
		rec.Attrs[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value.Resolve().Any()
		return true
	})
	h.mu.Lock()
	*h.records = append(*h.records, rec)
	h.mu.Unlock()
	return nil
}

// WithAttrs implements slog.Handler.
func (h *RecordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RecordingHandler{mu: h.mu, records: h.records, attrs: append(slices.Clone(h.attrs), attrs...)}
}

// WithGroup implements slog.Handler. Groups are flattened.
func (h *RecordingHandler) WithGroup(string) slog.Handler { return h }

// Records returns the records with the given message, or all of them when
// msg is empty.
func (h *RecordingHandler) Records(msg string) []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Record
	for _, r := range *h.records {
		if msg == "" || r.Message == msg {
			out = append(out, r)
		}
	}
	return out
}
