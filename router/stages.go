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

package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"rivaas.dev/dispatch/body"
	"rivaas.dev/dispatch/cors"
	"rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/upload"
	"rivaas.dev/dispatch/validation"
)

// errUploadFailed is reported instead of unexpected upload failures.
var errUploadFailed = errors.New(http.StatusInternalServerError, upload.FaultCode, "Failed to upload files")

// BodyOptions configures the body decoding stage.
type BodyOptions struct {
	body.Config

	// OnError replaces the default 400 {"code": 400500} response.
	OnError ErrorHandler
}

// UploadOptions configures the upload stage.
type UploadOptions struct {
	upload.Config

	// OnError replaces the default 500 {"code": 500500} response. It
	// receives the policy fault or the unexpected error itself.
	OnError ErrorHandler
}

// bodyStage returns the router decoder stage, or one built for opts.
func (r *Router) bodyStage(opts *BodyOptions) (HandlerFunc, error) {
	dec, onError := r.decoder, r.body.OnError
	if opts != nil {
		d, err := body.New(opts.Config)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBodyConfig, err)
		}
		dec, onError = d, opts.OnError
	}

	return func(c *Context) {
		res, err := dec.Decode(c.Request)
		if err != nil {
			c.fail(err, onError)
			return
		}
		if res.Kind == body.KindNone {
			return
		}
		c.body = res.Value
		c.form = res.Form
		c.rawBody = res.Raw
	}, nil
}

// corsStage writes the policy headers; a preflight request ends the chain
// with the policy success status.
func corsStage(policy cors.Policy) HandlerFunc {
	return func(c *Context) {
		res := policy.Evaluate(c.Request.Method, c.Request.Header.Get("Origin"), c.Request.Header)
		res.Apply(c.Response.Header())
		if res.Preflight {
			c.Status(res.Status)
			c.Abort()
		}
	}
}

// uploadStage parses the multipart body. Faults and failures roll back the
// stored files before the response is written. The stored files are also
// rolled back when a later stage escalates or panics.
func uploadStage(u *upload.Uploader, onError ErrorHandler) HandlerFunc {
	return func(c *Context) {
		res, err := u.Parse(c.Request.Context(), c.Request)
		if err != nil {
			if onError != nil {
				c.fail(err, onError)
				return
			}
			if !upload.IsFault(err) {
				c.Logger().Error("upload failed", slog.Any("error", err))
				err = errUploadFailed
			}
			c.WriteError(err)
			return
		}

		fields := make(map[string]any, len(res.Fields))
		for k, v := range res.Fields {
			fields[k] = v
		}
		c.upload = res
		c.body = fields

		kept := false
		defer func() {
			if !kept {
				res.Rollback()
			}
		}()
		c.Next()
		kept = c.escalated == nil
	}
}

// validateStage checks the request against the route annotations. The
// operation is compiled at activation.
type validateStage struct {
	method  string
	path    string
	params  validation.Parameters
	op      *validation.Operation
	onError ErrorHandler
}

func (s *validateStage) handle(c *Context) {
	if s.op == nil {
		return
	}
	out, err := s.op.Validate(validation.Input{
		Body:   c.body,
		Query:  c.Request.URL.Query(),
		Params: c.params,
		Header: c.Request.Header,
	})
	if err != nil {
		c.fail(err, s.onError)
		return
	}
	c.validated = out
}
