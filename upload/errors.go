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
	"net/http"
)

// FaultCode is the response code shared by every upload fault.
const FaultCode = 500500

// Error is a policy violation detected while parsing a multipart request.
// Its message is safe to show to clients.
type Error struct {
	message string
}

// Error returns the client-facing message.
func (e *Error) Error() string {
	return e.message
}

// HTTPStatus implements rivaas.dev/dispatch/errors.ErrorType.
func (e *Error) HTTPStatus() int {
	return http.StatusInternalServerError
}

// FaultCode implements rivaas.dev/dispatch/errors.ErrorCode.
func (e *Error) FaultCode() int {
	return FaultCode
}

// Upload faults. Compare with [errors.Is].
var (
	ErrUnsupportedType    = &Error{"Content type is not supported."}
	ErrEmptyFilename      = &Error{"File name is undefined."}
	ErrMultipleNotAllowed = &Error{"Multiple files is not allowed."}
	ErrFieldNotAllowed    = &Error{"File name is not allowed."}
	ErrFileTypeNotAllowed = &Error{"File type is not allowed."}
	ErrFieldNameTooLarge  = &Error{"Field name is too large."}
	ErrFieldValueTooLarge = &Error{"Field value is too large."}
	ErrFileTooLarge       = &Error{"File is too large."}
	ErrTooManyParts       = &Error{"Too many parts."}
	ErrTooManyFiles       = &Error{"Too many files."}
	ErrTooManyFields      = &Error{"Too many fields."}
	ErrFieldConflict      = &Error{"Field name is used by both a field and a file."}
)

// ErrRootUndefined indicates a file storage was created without a root directory.
var ErrRootUndefined = errors.New("the root directory is undefined")

// IsFault reports whether err is an upload policy fault rather than an
// unexpected failure such as a storage error.
func IsFault(err error) bool {
	var fault *Error
	return errors.As(err, &fault)
}
