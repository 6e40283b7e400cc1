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

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"rivaas.dev/dispatch/config/codec"
	"rivaas.dev/dispatch/config/dumper"
	"rivaas.dev/dispatch/config/source"
)

// Source provides configuration values.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// Dumper persists the merged values.
type Dumper interface {
	Dump(ctx context.Context, values map[string]any) error
}

// Validator is implemented by bound structs that check themselves after
// decoding and tag validation.
type Validator interface {
	Validate() error
}

// Option configures a [Config].
type Option func(c *Config) error

// Config merges its sources in order, later sources winning, and
// optionally decodes the result into a struct.
type Config struct {
	mu     sync.RWMutex
	values map[string]any

	sources    []Source
	dumpers    []Dumper
	binding    any
	tagName    string
	schema     *jsonschema.Schema
	validators []func(map[string]any) error
	validate   *validator.Validate
}

// WithSource adds a source.
func WithSource(src Source) Option {
	return func(c *Config) error {
		if src == nil {
			return errors.New("config: nil source")
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithFile adds a file source. The format follows the extension.
func WithFile(path string) Option {
	return func(c *Config) error {
		typ, err := detectFormat(path)
		if err != nil {
			return err
		}
		return WithFileAs(path, typ)(c)
	}
}

// WithOptionalFile is like WithFile but a missing file is skipped.
func WithOptionalFile(path string) Option {
	return func(c *Config) error {
		typ, err := detectFormat(path)
		if err != nil {
			return err
		}
		dec, err := codec.GetDecoder(typ)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewOptionalFile(path, dec))
		return nil
	}
}

// WithFileAs adds a file source with an explicit format.
func WithFileAs(path string, typ codec.Type) Option {
	return func(c *Config) error {
		dec, err := codec.GetDecoder(typ)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewFile(path, dec))
		return nil
	}
}

// WithContent adds an in-memory document.
//
// Example:
//
//	//go:embed defaults.yaml
//	var defaults []byte
//
//	cfg := config.MustNew(config.WithContent(defaults, codec.TypeYAML))
func WithContent(data []byte, typ codec.Type) Option {
	return func(c *Config) error {
		dec, err := codec.GetDecoder(typ)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewFileContent(data, dec))
		return nil
	}
}

// WithEnv adds the environment variables starting with prefix. Nested
// keys are separated by a double underscore: PREFIX_SERVER__ADDR.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, source.NewOSEnvVar(prefix))
		return nil
	}
}

// WithDumper adds a dumper called by [Config.Dump].
func WithDumper(d Dumper) Option {
	return func(c *Config) error {
		if d == nil {
			return errors.New("config: nil dumper")
		}
		c.dumpers = append(c.dumpers, d)
		return nil
	}
}

// WithFileDumper dumps to path in the format of its extension.
func WithFileDumper(path string) Option {
	return func(c *Config) error {
		typ, err := detectFormat(path)
		if err != nil {
			return err
		}
		enc, err := codec.GetEncoder(typ)
		if err != nil {
			return err
		}
		c.dumpers = append(c.dumpers, dumper.NewFile(path, enc))
		return nil
	}
}

// WithBinding decodes the merged values into v, a pointer to a struct,
// on every Load. Fields are matched by the `config` tag, zero fields take
// their `default` tag, then `validate` tags and [Validator] are checked.
func WithBinding(v any) Option {
	return func(c *Config) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return errors.New("config: binding must be a non-nil pointer to a struct")
		}
		c.binding = v
		return nil
	}
}

// WithTag changes the struct tag used for binding. Default: "config".
func WithTag(name string) Option {
	return func(c *Config) error {
		c.tagName = name
		return nil
	}
}

// WithJSONSchema checks the merged values against a JSON schema before
// binding.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return fmt.Errorf("config: parse schema: %w", err)
		}
		compiler := jsonschema.NewCompiler()
		if err = compiler.AddResource("config.schema.json", doc); err != nil {
			return err
		}
		c.schema, err = compiler.Compile("config.schema.json")
		return err
	}
}

// WithValidator adds a check on the merged values.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		if fn != nil {
			c.validators = append(c.validators, fn)
		}
		return nil
	}
}

// New creates a Config. Option errors are joined; the Config is still
// returned.
func New(opts ...Option) (*Config, error) {
	c := &Config{
		values:  map[string]any{},
		tagName: "config",
	}
	var errs error
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		errs = errors.Join(errs, opt(c))
	}
	c.validate = validator.New(validator.WithRequiredStructEnabled())
	c.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get(c.tagName), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return c, errs
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Config {
	c, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to create config: %v", err))
	}
	return c
}

// Load reads every source, merges and checks the values, and updates the
// binding. Nothing changes when an error is returned.
func (c *Config) Load(ctx context.Context) error {
	merged := make(map[string]any)
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		conf, err := src.Load(ctx)
		if err != nil {
			return NewError(sourceName(i, src), "load", err)
		}
		if err = mergo.Map(&merged, normalizeKeys(conf), mergo.WithOverride); err != nil {
			return NewError(sourceName(i, src), "merge", err)
		}
	}

	if c.schema != nil {
		doc, err := jsonDocument(merged)
		if err != nil {
			return NewError("json-schema", "validate", err)
		}
		if err = c.schema.Validate(doc); err != nil {
			return NewError("json-schema", "validate", err)
		}
	}
	for i, fn := range c.validators {
		if err := fn(merged); err != nil {
			return NewError(fmt.Sprintf("validator[%d]", i), "validate", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.binding != nil {
		if err := c.bind(merged); err != nil {
			return err
		}
	}
	c.values = merged
	return nil
}

// MustLoad is like Load but panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

// Dump hands the current values to every dumper.
func (c *Config) Dump(ctx context.Context) error {
	values := c.Values()
	for i, d := range c.dumpers {
		if err := d.Dump(ctx, values); err != nil {
			return NewError(fmt.Sprintf("dumper[%d]", i), "dump", err)
		}
	}
	return nil
}

// Values returns the merged values. The map must not be modified.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values
}

// bind decodes into a fresh value first so that the binding is only
// touched when decoding and validation succeed.
func (c *Config) bind(values map[string]any) error {
	target := reflect.New(reflect.TypeOf(c.binding).Elem())

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          c.tagName,
		Squash:           true,
		WeaklyTypedInput: true,
		Result:           target.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return NewError("binding", "decode", err)
	}
	if err = dec.Decode(values); err != nil {
		return NewError("binding", "decode", err)
	}
	if err = applyDefaults(target.Interface()); err != nil {
		return NewError("binding", "defaults", err)
	}
	if err = c.validate.Struct(target.Interface()); err != nil {
		return NewError("binding", "validate", err)
	}
	if v, ok := target.Interface().(Validator); ok {
		if err = v.Validate(); err != nil {
			return NewError("binding", "validate", err)
		}
	}

	reflect.ValueOf(c.binding).Elem().Set(target.Elem())
	return nil
}

func sourceName(i int, src Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("source[%d]", i)
}

// normalizeKeys lower-cases keys so that sources merge case-insensitively.
func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeKeys(nested)
		}
		out[strings.ToLower(k)] = v
	}
	return out
}

// jsonDocument converts decoded YAML and TOML values to the types a JSON
// schema validator expects.
func jsonDocument(values map[string]any) (any, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}
