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
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Get returns the value at the dot separated key converted to T, or the
// zero value when it is missing or cannot be converted.
//
// Example:
//
//	addr := config.Get[string](cfg, "server.addr")
//	limit := config.Get[int64](cfg, "body.json_limit")
func Get[T any](c *Config, key string) T {
	v, _ := GetE[T](c, key)
	return v
}

// GetOr is like Get but returns def when the key is missing or invalid.
func GetOr[T any](c *Config, key string, def T) T {
	v, err := GetE[T](c, key)
	if err != nil {
		return def
	}
	return v
}

// GetE is like Get but reports why the value is unavailable.
func GetE[T any](c *Config, key string) (T, error) {
	var zero T
	raw, ok := c.lookup(key)
	if !ok {
		return zero, fmt.Errorf("config: key %q not found", key)
	}
	if v, ok := raw.(T); ok {
		return v, nil
	}

	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case string:
		out, err = cast.ToStringE(raw)
	case bool:
		out, err = cast.ToBoolE(raw)
	case int:
		out, err = cast.ToIntE(raw)
	case int64:
		out, err = cast.ToInt64E(raw)
	case float64:
		out, err = cast.ToFloat64E(raw)
	case time.Duration:
		out, err = cast.ToDurationE(raw)
	case []string:
		if s, isString := raw.(string); isString {
			raw = splitList(s)
		}
		out, err = cast.ToStringSliceE(raw)
	case map[string]any:
		out, err = cast.ToStringMapE(raw)
	default:
		return zero, fmt.Errorf("config: unsupported type %T for key %q", zero, key)
	}
	if err != nil {
		return zero, fmt.Errorf("config: key %q: %w", key, err)
	}
	return out.(T), nil
}

// String returns the string at key.
func (c *Config) String(key string) string { return Get[string](c, key) }

// Int returns the int at key.
func (c *Config) Int(key string) int { return Get[int](c, key) }

// Bool returns the bool at key.
func (c *Config) Bool(key string) bool { return Get[bool](c, key) }

// Duration returns the duration at key. Plain numbers are nanoseconds.
func (c *Config) Duration(key string) time.Duration { return Get[time.Duration](c, key) }

// StringSlice returns the list at key. A string is split on commas.
func (c *Config) StringSlice(key string) []string { return Get[[]string](c, key) }

// lookup walks the dot separated key through nested maps.
func (c *Config) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var cur any = c.values
	for part := range strings.SplitSeq(strings.ToLower(key), ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
