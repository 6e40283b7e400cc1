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
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

var durationType = reflect.TypeFor[time.Duration]()

// applyDefaults sets the `default` tag of every zero field of the struct
// target points to, descending into nested structs.
func applyDefaults(target any) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return errors.New("target must be a pointer to a struct")
	}
	return setDefaults(val.Elem())
}

func setDefaults(val reflect.Value) error {
	typ := val.Type()
	for i := range val.NumField() {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeFor[time.Time]() {
			if err := setDefaults(field); err != nil {
				return err
			}
			continue
		}

		def, ok := typ.Field(i).Tag.Lookup("default")
		if !ok || !field.IsZero() {
			continue
		}
		if err := setDefault(field, def); err != nil {
			return fmt.Errorf("failed to set default for field %s: %w", typ.Field(i).Name, err)
		}
	}
	return nil
}

func setDefault(field reflect.Value, def string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(def)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(def)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := cast.ToInt64E(def)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(def)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(def)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := cast.ToBoolE(def)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type for default tag: %s", field.Type())
		}
		field.Set(reflect.ValueOf(splitList(def)).Convert(field.Type()))
	default:
		return fmt.Errorf("unsupported type for default tag: %s", field.Kind())
	}
	return nil
}
