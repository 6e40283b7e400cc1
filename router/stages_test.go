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

//go:build !integration

package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/body"
	"rivaas.dev/dispatch/cors"
	"rivaas.dev/dispatch/upload"
	"rivaas.dev/dispatch/validation"
)

func send(r *Router, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSONBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// multipartBody writes fields then one file per entry of files.
func multipartBody(t *testing.T, fields map[string]string, files map[string][2]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, f := range files {
		fw, err := mw.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = io.WriteString(fw, f[1])
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestBodyStage_JSON(t *testing.T) {
	t.Parallel()

	var got any
	var raw string
	r := MustNew()
	r.POST("/items", func(c *Context) {
		got = c.Body()
		raw = string(c.RawBody())
		c.NoContent()
	})

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"name":"pen","qty":2}`))
	req.Header.Set("Content-Type", "application/json")
	w := send(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, map[string]any{"name": "pen", "qty": json.Number("2")}, got)
	assert.JSONEq(t, `{"name":"pen","qty":2}`, raw)
}

func TestBodyStage_Form(t *testing.T) {
	t.Parallel()

	var form []string
	r := MustNew()
	r.PUT("/items", func(c *Context) {
		form = c.Form()["tag"]
	})

	req := httptest.NewRequest(http.MethodPut, "/items", strings.NewReader("tag=a&tag=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	send(r, req)

	assert.Equal(t, []string{"a", "b"}, form)
}

func TestBodyStage_UnknownTypeIsSkipped(t *testing.T) {
	t.Parallel()

	called := false
	r := MustNew()
	r.POST("/items", func(c *Context) {
		called = true
		assert.Nil(t, c.Body())
	})

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	send(r, req)

	assert.True(t, called)
}

func TestBodyStage_Malformed(t *testing.T) {
	t.Parallel()

	called := false
	r := MustNew()
	r.POST("/items", func(*Context) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	w := send(r, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{
		"code":    float64(body.FaultCode),
		"message": body.Message,
	}, decodeJSONBody(t, w))
}

func TestBodyStage_OnError(t *testing.T) {
	t.Parallel()

	var seen error
	r := MustNew()
	r.With(WithRouteBody(BodyOptions{
		Config: body.Config{JSONLimit: 4},
		OnError: func(c *Context, err error) {
			seen = err
			c.String(http.StatusRequestEntityTooLarge, "too big")
		},
	})).POST("/items", func(*Context) { t.Fatal("handler must not run") })

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"name":"pen"}`))
	req.Header.Set("Content-Type", "application/json")
	w := send(r, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.ErrorIs(t, seen, body.ErrTooLarge)
}

func TestCORSStage(t *testing.T) {
	t.Parallel()

	r := MustNew(WithCORS(cors.New(cors.WithMaxAge(600))))
	r.POST("/orders", func(c *Context) { c.String(http.StatusCreated, "ok") })

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodOptions, "/orders", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "X-Token")
		w := send(r, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get(cors.HeaderAllowOrigin))
		assert.Equal(t, "X-Token", w.Header().Get(cors.HeaderAllowHeaders))
		assert.Equal(t, "600", w.Header().Get(cors.HeaderMaxAge))
		assert.Contains(t, w.Header().Get(cors.HeaderAllowMethods), http.MethodPost)
	})

	t.Run("simple request", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set("Origin", "https://app.example")
		w := send(r, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "*", w.Header().Get(cors.HeaderAllowOrigin))
		assert.Empty(t, w.Header().Get(cors.HeaderAllowMethods))
	})
}

func TestUploadStage_Memory(t *testing.T) {
	t.Parallel()

	var res *upload.Result
	var fields any
	r := MustNew()
	r.Upload("/files", func(c *Context) {
		res = c.Upload()
		fields = c.Body()
		c.NoContent()
	})

	buf, ct := multipartBody(t, map[string]string{"title": "notes"}, map[string][2]string{"doc": {"notes.txt", "hello"}})
	req := httptest.NewRequest(http.MethodPost, "/files", buf)
	req.Header.Set("Content-Type", ct)
	w := send(r, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, res)
	f := res.File("doc")
	require.NotNil(t, f)
	assert.Equal(t, "notes.txt", f.Filename)
	assert.Equal(t, ".txt", f.Extension)
	assert.Equal(t, []byte("hello"), f.Data)
	assert.Equal(t, map[string]any{"title": "notes"}, fields)
}

func TestUploadStage_Fault(t *testing.T) {
	t.Parallel()

	r := MustNew(WithUpload(UploadOptions{Config: upload.Config{AllowedFileExts: []string{".png"}}}))
	r.Upload("/files", func(*Context) { t.Fatal("handler must not run") })

	buf, ct := multipartBody(t, nil, map[string][2]string{"doc": {"notes.txt", "hello"}})
	req := httptest.NewRequest(http.MethodPost, "/files", buf)
	req.Header.Set("Content-Type", ct)
	w := send(r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{
		"code":    float64(upload.FaultCode),
		"message": upload.ErrFileTypeNotAllowed.Error(),
	}, decodeJSONBody(t, w))
}

var errDiskFull = errors.New("disk full")

type failingStorage struct {
	rolledBack atomic.Bool
}

func (s *failingStorage) Persist(upload.FileMeta) upload.Task { return failingTask{s} }

type failingTask struct{ s *failingStorage }

func (failingTask) Run(io.Reader) (*upload.File, error) { return nil, errDiskFull }
func (t failingTask) Rollback()                         { t.s.rolledBack.Store(true) }

func TestUploadStage_UnexpectedFailure(t *testing.T) {
	t.Parallel()

	storage := &failingStorage{}
	r := MustNew()
	r.With(WithRouteUpload(UploadOptions{Config: upload.Config{Storage: storage}})).
		Upload("/files", func(*Context) { t.Fatal("handler must not run") })

	buf, ct := multipartBody(t, nil, map[string][2]string{"doc": {"notes.txt", "hello"}})
	req := httptest.NewRequest(http.MethodPost, "/files", buf)
	req.Header.Set("Content-Type", ct)
	w := send(r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{
		"code":    float64(upload.FaultCode),
		"message": "Failed to upload files",
	}, decodeJSONBody(t, w))
	assert.True(t, storage.rolledBack.Load())
}

func TestUploadStage_OnErrorGetsCause(t *testing.T) {
	t.Parallel()

	var seen error
	r := MustNew()
	r.With(WithRouteUpload(UploadOptions{
		Config: upload.Config{Storage: &failingStorage{}},
		OnError: func(c *Context, err error) {
			seen = err
			c.Status(http.StatusInsufficientStorage)
		},
	})).Upload("/files", func(*Context) {})

	buf, ct := multipartBody(t, nil, map[string][2]string{"doc": {"notes.txt", "hello"}})
	req := httptest.NewRequest(http.MethodPost, "/files", buf)
	req.Header.Set("Content-Type", ct)
	w := send(r, req)

	assert.Equal(t, http.StatusInsufficientStorage, w.Code)
	assert.ErrorIs(t, seen, errDiskFull)
}

func uploadToDisk(t *testing.T, handler HandlerFunc) (*Router, *http.Request, *string) {
	t.Helper()
	var stored string
	r := MustNew(WithUpload(UploadOptions{Config: upload.Config{Root: t.TempDir()}}))
	r.Upload("/files", func(c *Context) {
		f := c.Upload().File("doc")
		require.NotNil(t, f)
		stored = f.Path
		require.FileExists(t, stored)
		handler(c)
	})
	buf, ct := multipartBody(t, nil, map[string][2]string{"doc": {"notes.txt", "hello"}})
	req := httptest.NewRequest(http.MethodPost, "/files", buf)
	req.Header.Set("Content-Type", ct)
	return r, req, &stored
}

func TestUploadStage_KeepsFilesWhenHandlerSucceeds(t *testing.T) {
	t.Parallel()

	r, req, stored := uploadToDisk(t, func(c *Context) { c.NoContent() })
	w := send(r, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.FileExists(t, *stored)
}

func TestUploadStage_EscalatedHandlerRollsBack(t *testing.T) {
	t.Parallel()

	errIndex := errors.New("index unavailable")
	r, req, stored := uploadToDisk(t, func(c *Context) { c.Escalate(errIndex) })
	err := r.Dispatch(httptest.NewRecorder(), req, http.NotFoundHandler())

	require.ErrorIs(t, err, errIndex)
	require.NotEmpty(t, *stored)
	_, statErr := os.Stat(*stored)
	assert.True(t, os.IsNotExist(statErr), "stored file must be removed")
}

func TestUploadStage_PanickingHandlerRollsBack(t *testing.T) {
	t.Parallel()

	r, req, stored := uploadToDisk(t, func(*Context) { panic("boom") })
	require.Panics(t, func() {
		_ = r.Dispatch(httptest.NewRecorder(), req, http.NotFoundHandler())
	})

	require.NotEmpty(t, *stored)
	_, statErr := os.Stat(*stored)
	assert.True(t, os.IsNotExist(statErr), "stored file must be removed")
}

func TestUploadStage_NotMultipart(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Upload("/files", func(*Context) {})

	req := httptest.NewRequest(http.MethodPost, "/files", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := send(r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, upload.ErrUnsupportedType.Error(), decodeJSONBody(t, w)["message"])
}

func TestValidateStage(t *testing.T) {
	t.Parallel()

	var out *validation.Output
	r := MustNew()
	r.With(WithAnnotations(Annotations{
		Parameters: validation.Parameters{
			Path:  map[string]*validation.Schema{"id": {Type: "integer", Required: true}},
			Query: map[string]*validation.Schema{"verbose": {Type: "boolean"}},
		},
	})).GET("/users/:id", func(c *Context) {
		out = c.Validated()
		c.NoContent()
	})

	t.Run("valid", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/users/7?verbose=true")
		require.Equal(t, http.StatusNoContent, w.Code)
		require.NotNil(t, out)
		assert.Equal(t, int64(7), out.Params["id"])
		assert.Equal(t, true, out.Query["verbose"])
	})

	t.Run("invalid", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/users/abc")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		got := decodeJSONBody(t, w)
		assert.Equal(t, float64(validation.FaultCode), got["code"])
		require.NotEmpty(t, got["errors"])
	})
}

func TestValidateStage_ValidatesDecodedBody(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.With(WithAnnotations(Annotations{
		Parameters: validation.Parameters{
			Body: &validation.Schema{
				Type:       "object",
				Required:   true,
				Properties: map[string]*validation.Schema{"name": {Type: "string", Required: true}},
			},
		},
	})).POST("/users", func(c *Context) { c.Status(http.StatusCreated) })

	post := func(payload string) int {
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		return send(r, req).Code
	}

	assert.Equal(t, http.StatusCreated, post(`{"name":"ann"}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"age":3}`))
}

func TestValidateStage_OnError(t *testing.T) {
	t.Parallel()

	var seen error
	r := MustNew(WithValidator(ValidatorOptions{
		OnError: func(c *Context, err error) {
			seen = err
			c.Status(http.StatusUnprocessableEntity)
		},
	}))
	r.With(WithAnnotations(Annotations{
		Parameters: validation.Parameters{
			Query: map[string]*validation.Schema{"limit": {Type: "integer", Maximum: validation.Float(10)}},
		},
	})).GET("/list", func(*Context) { t.Fatal("handler must not run") })

	w := serve(r, http.MethodGet, "/list?limit=50")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var verr *validation.Error
	require.ErrorAs(t, seen, &verr)
	assert.True(t, verr.HasField("query.limit"))
}

func TestValidateStage_HEADCompanionSkipsValidation(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.With(WithAnnotations(Annotations{
		Parameters: validation.Parameters{
			Path: map[string]*validation.Schema{"id": {Type: "integer"}},
		},
	})).GET("/users/:id", func(*Context) {})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodHead, "/users/abc").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/users/abc").Code)
}
