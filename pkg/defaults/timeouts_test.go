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

import (
	"testing"
	"time"
)

func TestTimeoutOrdering(t *testing.T) {
	tests := []struct {
		name            string
		shorter, longer time.Duration
	}{
		{"health check finishes before next poll", HealthCheckTimeout, HealthPollInterval},
		{"startup polls several times before giving up", StartupPollInterval, StartupWaitTimeout},
		{"one health check fits in the startup wait", HealthCheckTimeout, StartupWaitTimeout},
		{"tcp dial fits in a probe", DialTimeout, ProbeTimeout},
		{"dns lookup fits in a probe", LookupTimeout, ProbeTimeout},
		{"compose queries are quicker than stops", ComposeQueryTimeout, ComposeStopTimeout},
		{"redis dial fits in a command", RedisDialTimeout, RedisCommandTimeout},
		{"headers arrive before the body deadline", ServerReadHeaderTimeout, ServerReadTimeout},
		{"reads finish before writes", ServerReadTimeout, ServerWriteTimeout},
		{"idle connections outlive a write", ServerWriteTimeout, ServerIdleTimeout},
		{"connect fits in a client request", HTTPConnectTimeout, HTTPClientTimeout},
		{"tls handshake fits in a client request", HTTPTLSHandshakeTimeout, HTTPClientTimeout},
		{"all retries fit in a client request", HTTPRetryCount * HTTPRetryWait, HTTPClientTimeout},
		{"log tail reacts faster than startup polling", TailPollInterval, StartupPollInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shorter <= 0 {
				t.Fatalf("duration must be positive, got %v", tt.shorter)
			}
			if tt.shorter >= tt.longer {
				t.Errorf("%v should be less than %v", tt.shorter, tt.longer)
			}
		})
	}
}

func TestDockerfileHealthInterval(t *testing.T) {
	if HealthPollInterval != 30*time.Second {
		t.Errorf("HealthPollInterval = %v, want the container HEALTHCHECK interval of 30s", HealthPollInterval)
	}
}

func TestTailDefaults(t *testing.T) {
	if TailLines <= 0 {
		t.Errorf("TailLines = %d, want positive", TailLines)
	}
	if RemoteUploadTimeout < ProbeTimeout {
		t.Errorf("RemoteUploadTimeout (%v) is shorter than a probe (%v)", RemoteUploadTimeout, ProbeTimeout)
	}
}
