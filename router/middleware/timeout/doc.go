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

// Package timeout bounds the time spent in the handlers that follow it.
//
// The rest of the chain runs in its own goroutine with a deadline on the
// request context. When the deadline passes first, a timeout response is
// written and later writes from the handlers are discarded with
// [http.ErrHandlerTimeout]. Handlers are not interrupted: they must watch
// c.Request.Context().Done() and return. The entry waits for them before
// returning, and a panic in the handler goroutine is re-raised on the
// calling goroutine so the recovery entry still sees it.
//
// # Basic Usage
//
//	r.Use(
//	    recovery.New(),
//	    timeout.New(
//	        timeout.WithDuration(5*time.Second),
//	        timeout.WithSkipPrefix("/events"),
//	    ),
//	)
//
//	r.GET("/report", func(c *router.Context) {
//	    select {
//	    case <-time.After(2 * time.Second):
//	        c.String(http.StatusOK, "done")
//	    case <-c.Request.Context().Done():
//	    }
//	})
package timeout
