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
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type middleware func(http.Handler) http.Handler

// withMiddleware wraps a /v1 handler. The first middleware listed is the
// outermost.
func (s *Server) withMiddleware(h http.HandlerFunc) http.HandlerFunc {
	chain := []middleware{s.observe, s.tagRequest, s.recoverPanics, s.limit}

	var next http.Handler = h
	for i := len(chain) - 1; i >= 0; i-- {
		next = chain[i](next)
	}
	return next.ServeHTTP
}

// observe records request metrics and logs the outcome at debug level.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		status := strconv.Itoa(rw.Status())
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(elapsed.Seconds())

		slog.Debug("watch request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.Status(),
			"requestID", rw.Header().Get(requestIDHeader),
			"elapsed", elapsed.String(),
		)
	})
}

// tagRequest stores the request ID and negotiated API version in the context
// and echoes both as response headers. A missing or malformed X-Request-Id is
// replaced with a fresh UUID.
func (s *Server) tagRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		version := negotiateAPIVersion(r)

		w.Header().Set(requestIDHeader, id)
		SetAPIVersionHeader(w, version)

		ctx := context.WithValue(r.Context(), contextKeyRequestID, id)
		ctx = context.WithValue(ctx, contextKeyAPIVersion, version)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			panicRecoveries.Inc()
			slog.Error("watch handler panicked",
				"panic", fmt.Sprint(rec),
				"method", r.Method,
				"path", r.URL.Path,
				"requestID", r.Context().Value(contextKeyRequestID),
			)
			WriteError(w, r, http.StatusInternalServerError, ErrCodeInternalError,
				"internal server error", true, nil)
		}()
		next.ServeHTTP(w, r)
	})
}

// limit applies the server's token bucket. Rejected requests get a 429 with
// Retry-After.
func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if !s.rateLimiter.Allow() {
			rateLimitRejects.Inc()
			h.Set("Retry-After", "1")
			WriteError(w, r, http.StatusTooManyRequests, ErrCodeRateLimitExceeded,
				"rate limit exceeded", true, map[string]any{
					"limit": float64(s.config.RateLimit),
					"burst": s.config.RateLimitBurst,
				})
			return
		}
		h.Set("X-RateLimit-Limit", strconv.FormatFloat(float64(s.config.RateLimit), 'f', -1, 64))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(int(s.rateLimiter.Tokens())))
		next.ServeHTTP(w, r)
	})
}
