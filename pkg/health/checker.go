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
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/researchplatform/rpctl/pkg/defaults"
	"github.com/researchplatform/rpctl/pkg/errors"
	"github.com/researchplatform/rpctl/pkg/httpclient"
)

// StatusHealthy is the status value reported by a healthy application.
const StatusHealthy = "healthy"

// Report is the JSON document served by GET /health.
type Report struct {
	Status    string          `json:"status" yaml:"status"`
	Timestamp string          `json:"timestamp" yaml:"timestamp"`
	APIs      map[string]bool `json:"apis" yaml:"apis"`

	// Latency is measured by the client and not part of the payload.
	Latency time.Duration `json:"-" yaml:"-"`
}

// Healthy reports whether the application declared itself healthy.
func (r *Report) Healthy() bool {
	return r != nil && r.Status == StatusHealthy
}

// TableHeader implements serializer.Tabular.
func (r *Report) TableHeader() []string {
	return []string{"COMPONENT", "STATUS"}
}

// TableRows implements serializer.Tabular.
func (r *Report) TableRows() [][]string {
	rows := [][]string{{"app", r.Status}}
	names := make([]string, 0, len(r.APIs))
	for name := range r.APIs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		state := "not configured"
		if r.APIs[name] {
			state = "connected"
		}
		rows = append(rows, []string{"api/" + name, state})
	}
	return rows
}

// Checker queries the health endpoint.
type Checker struct {
	client *resty.Client
	url    string
}

// NewChecker returns a Checker for the full health URL.
func NewChecker(url string) *Checker {
	return &Checker{
		client: httpclient.New("", defaults.HealthCheckTimeout),
		url:    url,
	}
}

// URL returns the probed endpoint.
func (c *Checker) URL() string {
	return c.url
}

// Check performs one request. Connection failures, non-2xx responses and
// bodies that are not a health report yield an UNAVAILABLE error.
func (c *Checker) Check(ctx context.Context) (*Report, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(c.url)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeUnavailable, "application is not reachable", err,
			map[string]any{"url": c.url})
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "application is unhealthy", httpclient.CheckResponse(resp))
	}

	report := &Report{}
	if err := json.Unmarshal(resp.Body(), report); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeUnavailable, "health endpoint did not return JSON", err,
			map[string]any{"body": truncate(string(resp.Body()), 120)})
	}
	if report.Status == "" {
		return nil, errors.New(errors.ErrCodeUnavailable, "health response has no status")
	}
	report.Latency = time.Since(start)
	return report, nil
}

// Wait polls until the application reports healthy or timeout elapses.
func (c *Checker) Wait(ctx context.Context, interval, timeout time.Duration) (*Report, error) {
	if interval <= 0 {
		interval = defaults.StartupPollInterval
	}
	if timeout <= 0 {
		timeout = defaults.StartupWaitTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		report, err := c.Check(ctx)
		if err == nil && report.Healthy() {
			return report, nil
		}
		if err == nil {
			lastErr = errors.New(errors.ErrCodeUnavailable, "application reported status "+report.Status)
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return nil, errors.WrapWithContext(errors.ErrCodeTimeout, "application did not become healthy", lastErr,
				map[string]any{"url": c.url, "timeout": timeout.String()})
		case <-ticker.C:
		}
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
