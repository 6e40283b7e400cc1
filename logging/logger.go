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

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"rivaas.dev/dispatch/telemetry/semconv"
)

// HandlerType represents the type of logging handler.
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
)

// Level represents log level.
type Level = slog.Level

const (
	// LevelDebug is the debug log level.
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// redacted replaces the value of sensitive attributes.
const redacted = "***REDACTED***"

// Logger builds and owns a [slog.Logger].
//
// Thread-safety: all methods are safe for concurrent use. The level lives
// in a [slog.LevelVar] so SetLevel takes effect without rebuilding the handler.
type Logger struct {
	handlerType HandlerType
	output      io.Writer
	level       slog.LevelVar

	// Added to every entry when set.
	serviceName    string
	serviceVersion string
	environment    string

	addSource   bool
	replaceAttr func(groups []string, a slog.Attr) slog.Attr

	slogger *slog.Logger
}

// Option is a functional option for configuring the logger.
type Option func(*Logger)

func defaultLogger() *Logger {
	l := &Logger{
		handlerType: JSONHandler,
		output:      os.Stdout,
	}
	l.level.Set(LevelInfo)
	return l
}

// New creates a Logger with the given options.
// It never touches the global slog default.
func New(opts ...Option) (*Logger, error) {
	l := defaultLogger()
	for _, opt := range opts {
		opt(l)
	}

	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	hopts := &slog.HandlerOptions{
		Level:       &l.level,
		AddSource:   l.addSource,
		ReplaceAttr: l.buildReplaceAttr(),
	}

	var handler slog.Handler
	switch l.handlerType {
	case JSONHandler:
		handler = slog.NewJSONHandler(l.output, hopts)
	case TextHandler:
		handler = slog.NewTextHandler(l.output, hopts)
	}

	sl := slog.New(handler)
	var attrs []any
	if l.serviceName != "" {
		attrs = append(attrs, semconv.ServiceName, l.serviceName)
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion, l.serviceVersion)
	}
	if l.environment != "" {
		attrs = append(attrs, semconv.Environment, l.environment)
	}
	if len(attrs) > 0 {
		sl = sl.With(attrs...)
	}
	l.slogger = sl

	return l, nil
}

// MustNew creates a new Logger or panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging initialization failed: " + err.Error())
	}
	return l
}

// Validate checks if the configuration is valid.
func (l *Logger) Validate() error {
	if l.output == nil {
		return ErrNilOutput
	}
	switch l.handlerType {
	case JSONHandler, TextHandler:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidHandler, l.handlerType)
	}
	return nil
}

func (l *Logger) buildReplaceAttr() func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case "password", "token", "secret", "api_key", "authorization":
			return slog.String(a.Key, redacted)
		}
		if l.replaceAttr != nil {
			return l.replaceAttr(groups, a)
		}
		return a
	}
}

// Logger returns the underlying [slog.Logger].
func (l *Logger) Logger() *slog.Logger {
	return l.slogger
}

// With returns a [slog.Logger] with additional attributes.
func (l *Logger) With(args ...any) *slog.Logger {
	return l.slogger.With(args...)
}

// Debug logs a debug message with structured attributes.
func (l *Logger) Debug(msg string, args ...any) {
	l.slogger.Log(context.Background(), LevelDebug, msg, args...)
}

// Info logs an informational message with structured attributes.
func (l *Logger) Info(msg string, args ...any) {
	l.slogger.Log(context.Background(), LevelInfo, msg, args...)
}

// Warn logs a warning message with structured attributes.
func (l *Logger) Warn(msg string, args ...any) {
	l.slogger.Log(context.Background(), LevelWarn, msg, args...)
}

// Error logs an error message with structured attributes.
func (l *Logger) Error(msg string, args ...any) {
	l.slogger.Log(context.Background(), LevelError, msg, args...)
}

// SetLevel changes the minimum log level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level)
}

// Level returns the current minimum log level.
func (l *Logger) Level() Level {
	return l.level.Level()
}

// ServiceName returns the service name.
func (l *Logger) ServiceName() string {
	return l.serviceName
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel parses "debug", "info", "warn" or "error", case-insensitively.
func ParseLevel(s string) (Level, error) {
	var level Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return level, nil
}
