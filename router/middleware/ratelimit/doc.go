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

// Package ratelimit limits how often a client may call the router.
//
// Two algorithms are available. [New] and [WithTokenBucket] allow bursts
// and refill at a steady rate, backed by golang.org/x/time/rate.
// [WithSlidingWindow] counts requests in the current and previous fixed
// window and weights the previous one by how much of it still overlaps.
//
// Every response carries RateLimit-Limit, RateLimit-Remaining and
// RateLimit-Reset headers. Rejected requests get 429 with Retry-After,
// unless the limiter runs in report-only mode.
//
//	r.Use(ratelimit.New(
//	    ratelimit.WithRequestsPerSecond(50),
//	    ratelimit.WithBurst(10),
//	))
package ratelimit
