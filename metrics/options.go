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

package metrics

import (
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option configures a [Recorder].
type Option func(*Recorder)

// WithMeterProvider uses a caller-managed provider; the provider options
// are ignored and Shutdown leaves it running.
//
// Example:
//
//	reader := sdkmetric.NewManualReader()
//	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
//	recorder := metrics.MustNew(metrics.WithMeterProvider(mp))
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = provider
		r.customMeterProvider = true
	}
}

// WithGlobalMeterProvider registers the built-in provider with otel.SetMeterProvider.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) {
		r.registerGlobal = true
	}
}

// WithPrometheus selects the Prometheus provider, served by [Recorder.Handler].
func WithPrometheus() Option {
	return func(r *Recorder) {
		r.provider = PrometheusProvider
		r.providerSetCount++
	}
}

// WithOTLP pushes metrics to the OTLP HTTP collector at endpoint, e.g.
// "http://localhost:4318".
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.otlpEndpoint = endpoint
		r.providerSetCount++
	}
}

// WithStdout prints metrics to w, or standard output when w is nil.
func WithStdout(w io.Writer) Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
		r.stdoutWriter = w
		r.providerSetCount++
	}
}

// WithProvider selects a provider by name, for configuration files.
func WithProvider(p Provider) Option {
	return func(r *Recorder) {
		r.provider = p
		r.providerSetCount++
	}
}

// WithExportInterval sets the push interval of the OTLP and stdout providers.
func WithExportInterval(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.exportInterval = d
		}
	}
}

func WithServiceName(name string) Option {
	return func(r *Recorder) {
		r.serviceName = name
	}
}

func WithServiceVersion(version string) Option {
	return func(r *Recorder) {
		r.serviceVersion = version
	}
}

// WithDurationBuckets overrides [DefaultDurationBuckets].
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.durationBuckets = buckets
		}
	}
}

// WithSizeBuckets overrides [DefaultSizeBuckets].
func WithSizeBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.sizeBuckets = buckets
		}
	}
}

// WithLogger receives provider lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithExcludePaths excludes exact request paths, e.g. the scrape endpoint.
func WithExcludePaths(paths ...string) Option {
	return func(r *Recorder) {
		r.filter.Exact(paths...)
	}
}

// WithExcludePrefixes excludes request paths starting with any prefix.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(r *Recorder) {
		r.filter.Prefix(prefixes...)
	}
}

// WithExcludePatterns excludes request paths matching any pattern.
// An invalid pattern makes New fail.
func WithExcludePatterns(patterns ...string) Option {
	return func(r *Recorder) {
		if err := r.filter.Pattern(patterns...); err != nil {
			r.validationErrors = append(r.validationErrors, err)
		}
	}
}
