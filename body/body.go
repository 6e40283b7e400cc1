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

package body

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Default limits.
const (
	DefaultJSONLimit = 2 << 20
	DefaultFormLimit = 56 << 10
	DefaultYAMLLimit = DefaultJSONLimit
)

// Default content types per format.
var (
	DefaultJSONFormats = []string{"application/json"}
	DefaultFormFormats = []string{"application/x-www-form-urlencoded"}
	DefaultYAMLFormats = []string{"application/yaml", "application/x-yaml", "text/yaml"}
)

// Kind identifies the format of a decoded body.
type Kind int

const (
	// KindNone means the request was not decoded.
	KindNone Kind = iota
	KindJSON
	KindForm
	KindYAML
)

// String returns the lower-case format name.
func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindForm:
		return "form"
	case KindYAML:
		return "yaml"
	default:
		return "none"
	}
}

// Config configures a [Decoder]. Zero values select the defaults.
type Config struct {
	// Encoding is assumed when the request declares no charset.
	Encoding string `config:"encoding"`

	JSONLimit int64 `config:"json_limit"`
	FormLimit int64 `config:"form_limit"`
	YAMLLimit int64 `config:"yaml_limit"`

	JSONFormats []string `config:"json_formats"`
	FormFormats []string `config:"form_formats"`
	YAMLFormats []string `config:"yaml_formats"`
}

// Result is a decoded body.
type Result struct {
	Kind Kind

	// Value is the decoded document: objects decode to map[string]any,
	// form values to map[string]any holding a string, or a []string for
	// repeated keys.
	Value any

	// Form holds the raw values of a form body.
	Form url.Values

	// Raw is the body after charset conversion.
	Raw []byte
}

// Decoder decodes request bodies. It is safe for concurrent use.
type Decoder struct {
	encoding encoding.Encoding
	formats  map[string]Kind
	limits   map[Kind]int64
}

// New validates cfg and builds a Decoder.
func New(cfg Config) (*Decoder, error) {
	name := cfg.Encoding
	if name == "" {
		name = "utf-8"
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		encoding: enc,
		formats:  make(map[string]Kind),
		limits: map[Kind]int64{
			KindJSON: limitOrDefault(cfg.JSONLimit, DefaultJSONLimit),
			KindForm: limitOrDefault(cfg.FormLimit, DefaultFormLimit),
			KindYAML: limitOrDefault(cfg.YAMLLimit, DefaultYAMLLimit),
		},
	}
	d.addFormats(KindJSON, cfg.JSONFormats, DefaultJSONFormats)
	d.addFormats(KindForm, cfg.FormFormats, DefaultFormFormats)
	d.addFormats(KindYAML, cfg.YAMLFormats, DefaultYAMLFormats)

	return d, nil
}

// MustNew is like New but panics on error.
func MustNew(cfg Config) *Decoder {
	d, err := New(cfg)
	if err != nil {
		panic("body.MustNew: " + err.Error())
	}
	return d
}

func (d *Decoder) addFormats(kind Kind, formats, defaults []string) {
	if len(formats) == 0 {
		formats = defaults
	}
	for _, f := range formats {
		d.formats[strings.ToLower(strings.TrimSpace(f))] = kind
	}
}

// Match returns the format the Content-Type of r maps to.
func (d *Decoder) Match(r *http.Request) Kind {
	kind, _ := d.match(r.Header.Get("Content-Type"))
	return kind
}

func (d *Decoder) match(contentType string) (Kind, map[string]string) {
	if contentType == "" {
		return KindNone, nil
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return KindNone, nil
	}
	if kind, ok := d.formats[mediaType]; ok {
		return kind, params
	}
	// Structured suffixes such as application/vnd.api+json.
	if i := strings.LastIndexByte(mediaType, '+'); i >= 0 {
		switch mediaType[i+1:] {
		case "json":
			return KindJSON, params
		case "yaml":
			return KindYAML, params
		}
	}
	return KindNone, params
}

// Decode reads and decodes the body of r. Requests with no body or a
// Content-Type outside the configured formats yield a [KindNone] result
// and leave the body unread. Failures are returned as [*Error].
func (d *Decoder) Decode(r *http.Request) (*Result, error) {
	kind, params := d.match(r.Header.Get("Content-Type"))
	if kind == KindNone || r.Body == nil || r.Body == http.NoBody {
		return &Result{Kind: KindNone}, nil
	}

	raw, err := d.read(r.Body, params["charset"], d.limits[kind])
	if err != nil {
		return nil, &Error{Kind: kind, Err: err}
	}

	res := &Result{Kind: kind, Raw: raw}
	switch kind {
	case KindJSON:
		res.Value, err = decodeJSON(raw)
	case KindYAML:
		res.Value, err = decodeYAML(raw)
	case KindForm:
		res.Form, err = url.ParseQuery(string(raw))
		if err == nil {
			res.Value = flatten(res.Form)
		}
	}
	if err != nil {
		return nil, &Error{Kind: kind, Err: err}
	}

	return res, nil
}

func (d *Decoder) read(src io.Reader, charset string, limit int64) ([]byte, error) {
	enc := d.encoding
	if charset != "" {
		var err error
		if enc, err = lookupEncoding(charset); err != nil {
			return nil, err
		}
	}

	// The limit applies to the bytes on the wire.
	limited := io.LimitReader(src, limit+1)
	counter := &countingReader{r: limited}
	var r io.Reader = counter
	if enc != nil {
		r = transform.NewReader(counter, enc.NewDecoder())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if counter.n > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

var errTrailingData = errors.New("decode json: trailing data")

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// lookupEncoding resolves a charset label. UTF-8 resolves to nil, meaning
// no transcoding.
func lookupEncoding(label string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

func decodeJSON(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if dec.More() {
		return nil, errTrailingData
	}
	return v, nil
}

func decodeYAML(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return v, nil
}

func flatten(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	return out
}

func limitOrDefault(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}
