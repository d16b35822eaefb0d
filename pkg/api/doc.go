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

// Package api runs the watch service: a health Monitor polling the app
// and the pkg/server endpoints publishing what it sees.
//
// It is shared by "rpctl watch" and the standalone rpctl-watch daemon, which
// is meant to run next to the Compose project under systemd or as a
// container of its own.
//
// # Usage
//
//	package main
//
//	import (
//	    "log"
//	    "github.com/researchplatform/rpctl/pkg/api"
//	)
//
//	func main() {
//	    if err := api.Main(); err != nil {
//	        log.Fatalf("server error: %v", err)
//	    }
//	}
//
// # Architecture
//
// This package is responsible for:
//   - Configuring structured logging with application name and version
//   - Resolving the configuration from the environment and .rpctl.yaml
//   - Wiring the health Monitor into the server as its status source
//
// The pkg/server package handles:
//   - HTTP server setup and graceful shutdown
//   - Middleware (rate limiting, logging, metrics, panic recovery)
//   - Health and readiness endpoints
//   - Prometheus metrics
//
// # Endpoints
//
//	GET /            service name, version and routes
//	GET /health      liveness of the watcher
//	GET /ready       200 while the app reports healthy
//	GET /metrics     Prometheus metrics
//	GET /v1/status   last health snapshot of the app
//
// # Configuration
//
// The daemon reads the same settings as rpctl from the environment:
//
//	HOST_PORT        app port polled on localhost (default 5000)
//	RP_WATCH_ADDR    listen address (default :9090)
//	RP_PROJECT_DIR   directory holding .rpctl.yaml
//	LOG_LEVEL        debug, info, warn, error
package api
