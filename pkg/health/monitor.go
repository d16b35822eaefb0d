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

package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/researchplatform/rpctl/pkg/defaults"
)

// Prober is satisfied by Checker.
type Prober interface {
	Check(ctx context.Context) (*Report, error)
}

// Snapshot is the latest state observed by a Monitor.
type Snapshot struct {
	Healthy             bool      `json:"healthy" yaml:"healthy"`
	Report              *Report   `json:"report,omitempty" yaml:"report,omitempty"`
	Error               string    `json:"error,omitempty" yaml:"error,omitempty"`
	CheckedAt           time.Time `json:"checkedAt" yaml:"checkedAt"`
	ConsecutiveFailures int       `json:"consecutiveFailures" yaml:"consecutiveFailures"`
	Checks              int       `json:"checks" yaml:"checks"`
}

// Monitor polls a Prober periodically.
type Monitor struct {
	prober   Prober
	interval time.Duration

	mu   sync.RWMutex
	snap Snapshot
}

// NewMonitor returns a Monitor. A zero interval matches the container
// HEALTHCHECK interval.
func NewMonitor(p Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = defaults.HealthPollInterval
	}
	return &Monitor{
		prober:   p,
		interval: interval,
	}
}

// Run checks immediately and then every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Poll(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll performs a single check and records the result.
func (m *Monitor) Poll(ctx context.Context) Snapshot {
	checkCtx, cancel := context.WithTimeout(ctx, defaults.HealthCheckTimeout)
	defer cancel()

	start := time.Now()
	report, err := m.prober.Check(checkCtx)
	checkDuration.Observe(time.Since(start).Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap.Checks++
	m.snap.CheckedAt = time.Now().UTC()
	m.snap.Report = report
	m.snap.Error = ""

	switch {
	case err != nil:
		m.snap.Healthy = false
		m.snap.Error = err.Error()
	case !report.Healthy():
		m.snap.Healthy = false
		m.snap.Error = "status " + report.Status
	default:
		m.snap.Healthy = true
	}

	if m.snap.Healthy {
		if m.snap.ConsecutiveFailures > 0 {
			slog.Info("application recovered", "failures", m.snap.ConsecutiveFailures)
		}
		m.snap.ConsecutiveFailures = 0
		appUp.Set(1)
		checksTotal.WithLabelValues("healthy").Inc()
	} else {
		m.snap.ConsecutiveFailures++
		appUp.Set(0)
		checksTotal.WithLabelValues("unhealthy").Inc()
		slog.Warn("health check failed", "error", m.snap.Error, "failures", m.snap.ConsecutiveFailures)
	}

	if report != nil {
		for name, ok := range report.APIs {
			v := 0.0
			if ok {
				v = 1
			}
			apiConnected.WithLabelValues(name).Set(v)
		}
	}

	return m.snap
}

// Snapshot returns the latest observed state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}
