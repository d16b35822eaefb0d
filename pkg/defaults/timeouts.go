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

package defaults

import "time"

// Health timeouts for polling the application health endpoint.
const (
	// HealthPollInterval mirrors the container HEALTHCHECK interval.
	HealthPollInterval = 30 * time.Second

	// HealthCheckTimeout bounds a single GET /health.
	HealthCheckTimeout = 10 * time.Second

	// StartupPollInterval is how often `up` re-checks health while waiting.
	StartupPollInterval = 2 * time.Second

	// StartupWaitTimeout is how long `up` waits for the app to report healthy.
	StartupWaitTimeout = 90 * time.Second
)

// Probe timeouts for external API smoke tests.
const (
	// ProbeTimeout bounds a single external API probe.
	ProbeTimeout = 15 * time.Second

	// DialTimeout bounds a single TCP reachability check.
	DialTimeout = 3 * time.Second

	// LookupTimeout bounds a single DNS lookup.
	LookupTimeout = 3 * time.Second
)

// Compose timeouts for container lifecycle commands.
const (
	// ComposeQueryTimeout bounds read-only engine queries (ps, stats, version).
	ComposeQueryTimeout = 30 * time.Second

	// ComposeStopTimeout bounds stop/down style operations.
	ComposeStopTimeout = 2 * time.Minute
)

// Redis timeouts.
const (
	// RedisDialTimeout is the connection timeout for the admin client.
	RedisDialTimeout = 5 * time.Second

	// RedisCommandTimeout bounds INFO, PING and FLUSH commands.
	RedisCommandTimeout = 10 * time.Second
)

// Backup timeouts.
const (
	// RemoteUploadTimeout bounds an upload of one archive to the NAS or a registry.
	RemoteUploadTimeout = 10 * time.Minute
)

// Server timeouts for the watch HTTP server.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPRetryCount is how many times resty retries a failed request.
	HTTPRetryCount = 2

	// HTTPRetryWait is the initial wait between resty retries.
	HTTPRetryWait = 500 * time.Millisecond
)

// Log tailing.
const (
	// TailPollInterval is how often tail-logs checks files for new data.
	TailPollInterval = 500 * time.Millisecond

	// TailLines is the default number of lines shown per log file.
	TailLines = 100
)
