// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddleware(t *testing.T) {
	s := New(WithHandler("/v1/echo", func(w http.ResponseWriter, r *http.Request) {
		id, _ := r.Context().Value(contextKeyRequestID).(string)
		w.Write([]byte(id))
	}))

	const valid = "4f8d2c9e-6a1b-4c3d-9e8f-0a1b2c3d4e5f"
	rec := do(t, s.Handler(), http.MethodGet, "/v1/echo", map[string]string{"X-Request-Id": valid})
	if got := rec.Body.String(); got != valid {
		t.Errorf("context request ID = %q, want %q", got, valid)
	}
	if got := rec.Header().Get("X-Request-Id"); got != valid {
		t.Errorf("X-Request-Id = %q, want %q", got, valid)
	}

	rec = do(t, s.Handler(), http.MethodGet, "/v1/echo", map[string]string{"X-Request-Id": "not-a-uuid"})
	got := rec.Header().Get("X-Request-Id")
	if got == "" || got == "not-a-uuid" {
		t.Errorf("invalid request ID should be replaced, got %q", got)
	}
	if rec.Body.String() != got {
		t.Errorf("context and header request IDs differ: %q vs %q", rec.Body.String(), got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s := New(
		WithRateLimit(0.001, 1),
		WithHandler("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	rec := do(t, s.Handler(), http.MethodGet, "/v1/ping", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request = %d, want 204", rec.Code)
	}

	rec = do(t, s.Handler(), http.MethodGet, "/v1/ping", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != ErrCodeRateLimitExceeded || !body.Retryable {
		t.Errorf("error body = %+v", body)
	}

	// system endpoints bypass the limiter
	if rec := do(t, s.Handler(), http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d while limited, want 200", rec.Code)
	}
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	s := New(WithHandler("/v1/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := do(t, s.Handler(), http.MethodGet, "/v1/boom", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("GET /v1/boom = %d, want 500", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != ErrCodeInternalError {
		t.Errorf("code = %q, want %q", body.Code, ErrCodeInternalError)
	}
	if body.RequestID != rec.Header().Get("X-Request-Id") {
		t.Errorf("error request ID %q does not match header %q", body.RequestID, rec.Header().Get("X-Request-Id"))
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)
	if rw.Status() != http.StatusOK {
		t.Errorf("default status = %d, want 200", rw.Status())
	}
	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusTeapot)
	if rw.Status() != http.StatusAccepted {
		t.Errorf("status = %d, want first write 202", rw.Status())
	}
	if rec.Code != http.StatusAccepted {
		t.Errorf("recorded = %d, want 202", rec.Code)
	}
}
