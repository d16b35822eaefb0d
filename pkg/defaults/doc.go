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

// Package defaults provides centralized configuration constants for rpctl.
//
// This package defines timeout values, polling intervals, and other
// configuration defaults used across the codebase. Centralizing these values
// ensures consistency and makes tuning easier.
//
// # Timeout Categories
//
// Timeouts are organized by component:
//
//   - Health timeouts: For polling the application /health endpoint
//   - Probe timeouts: For external API smoke tests
//   - Compose timeouts: For container lifecycle commands
//   - Server timeouts: For the watch HTTP server
//   - HTTP client timeouts: For outbound HTTP requests
//
// # Usage
//
// Import and use constants directly:
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.ProbeTimeout)
//	defer cancel()
//
// # Timeout Guidelines
//
//   - Health polls: 30s interval, matching the container HEALTHCHECK
//   - Startup wait: 2s poll, 90s ceiling
//   - API probes: 15s each, they run concurrently
//   - Server shutdown: 30s for graceful shutdown
package defaults
