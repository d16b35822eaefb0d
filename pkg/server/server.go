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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/researchplatform/rpctl/pkg/logging"
	"github.com/researchplatform/rpctl/pkg/serializer"
)

// Server serves the watch endpoints.
type Server struct {
	config      *Config
	httpServer  *http.Server
	rateLimiter *rate.Limiter
	status      StatusSource
	extra       map[string]http.HandlerFunc

	mu    sync.RWMutex
	ready bool
}

// Option configures a Server.
type Option func(*Server)

// WithName sets the name reported by "/".
func WithName(name string) Option {
	return func(s *Server) { s.config.Name = name }
}

// WithVersion sets the version reported by "/".
func WithVersion(version string) Option {
	return func(s *Server) { s.config.Version = version }
}

// WithAddress sets the listen address.
func WithAddress(addr string) Option {
	return func(s *Server) { s.config.Address = addr }
}

// WithRateLimit sets the /v1 token bucket.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *Server) {
		s.config.RateLimit = limit
		s.config.RateLimitBurst = burst
	}
}

// WithStatusSource sets where /ready and /v1/status read from.
func WithStatusSource(src StatusSource) Option {
	return func(s *Server) { s.status = src }
}

// WithHandler mounts an extra /v1 route behind the middleware chain.
func WithHandler(path string, h http.HandlerFunc) Option {
	return func(s *Server) { s.extra[path] = h }
}

// New returns a Server configured by opts.
func New(opts ...Option) *Server {
	s := &Server{
		config: NewConfig(),
		extra:  make(map[string]http.HandlerFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rateLimiter = rate.NewLimiter(s.config.RateLimit, s.config.RateLimitBurst)

	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.routes(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ErrorLog:          logging.NewLogLogger(slog.LevelError, false),
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Address
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// system endpoints are not rate limited
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/status", s.withMiddleware(s.handleStatus))
	for path, h := range s.extra {
		mux.HandleFunc(path, s.withMiddleware(h))
	}

	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// RootResponse is the body of "/".
type RootResponse struct {
	Service string   `json:"service" yaml:"service"`
	Version string   `json:"version" yaml:"version"`
	Routes  []string `json:"routes" yaml:"routes"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}

	routes := []string{"/health", "/ready", "/metrics", "/v1/status"}
	for path := range s.extra {
		routes = append(routes, path)
	}
	serializer.RespondJSON(w, http.StatusOK, RootResponse{
		Service: s.config.Name,
		Version: s.config.Version,
		Routes:  routes,
	})
}

// SetReady marks the server as ready to serve traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// Start listens and serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.SetReady(true)
	slog.Info("watch server listening", "address", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.WithoutCancel(ctx))
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down watch server")
	return s.httpServer.Shutdown(shutdownCtx)
}

// Run serves s alongside workers until ctx is cancelled or any of them
// fails. Workers should return nil when their context is done.
func Run(ctx context.Context, s *Server, workers ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.Start(gctx)
	})
	for _, w := range workers {
		g.Go(func() error {
			return w(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("watch server error: %w", err)
	}
	slog.Info("watch server stopped")
	return nil
}
