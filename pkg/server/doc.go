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

// Package server implements the HTTP side of "rpctl watch".
//
// The watch server publishes the state kept by a health.Monitor so that
// dashboards and uptime checkers can follow the platform without polling
// the application directly.
//
// # Endpoints
//
//	GET /          server name, version and routes
//	GET /health    liveness of the watcher itself
//	GET /ready     200 once the monitor has seen a healthy app, 503 otherwise
//	GET /metrics   Prometheus metrics (rpctl_* and Go runtime)
//	GET /v1/status last health snapshot
//
// # Middleware
//
// /v1 routes are wrapped, outermost first, in metrics plus debug logging,
// request tagging (X-Request-Id as a UUID and the negotiated X-API-Version),
// panic recovery and a token bucket rate limiter (golang.org/x/time/rate).
// Rejected requests get 429 with Retry-After.
//
// # Usage
//
//	mon := health.NewMonitor(health.NewChecker(cfg.HealthURL()), 30*time.Second)
//	srv := server.New(
//	    server.WithAddress(":9090"),
//	    server.WithVersion(version),
//	    server.WithStatusSource(mon),
//	)
//	err := server.Run(ctx, srv, mon.Run)
//
// Run serves until ctx is cancelled (SIGINT or SIGTERM in the CLI), then
// shuts down gracefully within Config.ShutdownTimeout.
package server
