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

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/researchplatform/rpctl/pkg/api"
	"github.com/researchplatform/rpctl/pkg/compose"
	"github.com/researchplatform/rpctl/pkg/defaults"
	"github.com/researchplatform/rpctl/pkg/header"
	"github.com/researchplatform/rpctl/pkg/health"
)

func (a *app) checker() *health.Checker {
	return health.NewChecker(a.cfg.HealthURL())
}

// StatusReport combines container state with the app health endpoint.
type StatusReport struct {
	header.Header `json:",inline" yaml:",inline"`

	Containers  compose.ContainerList `json:"containers" yaml:"containers"`
	Health      *health.Report        `json:"health,omitempty" yaml:"health,omitempty"`
	HealthError string                `json:"healthError,omitempty" yaml:"healthError,omitempty"`
}

// TableHeader implements serializer.Tabular.
func (r *StatusReport) TableHeader() []string {
	return []string{"SERVICE", "STATE", "HEALTH", "PORTS"}
}

// TableRows implements serializer.Tabular.
func (r *StatusReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Containers)+4)
	for _, c := range r.Containers {
		rows = append(rows, []string{c.Service, c.State, orDash(c.Health), orDash(c.Ports())})
	}
	switch {
	case r.HealthError != "":
		rows = append(rows, []string{"/health", "unreachable", "-", r.HealthError})
	case r.Health != nil:
		for _, row := range r.Health.TableRows() {
			rows = append(rows, []string{row[0], row[1], "-", "-"})
		}
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (a *app) statusCmd() *cli.Command {
	return &cli.Command{
		Name:     "status",
		Category: categoryMonitor,
		Usage:    "Show service state and the app health endpoint",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := a.compose(ctx)
			if err != nil {
				return err
			}

			qctx, cancel := context.WithTimeout(ctx, defaults.ComposeQueryTimeout)
			defer cancel()
			containers, err := c.PS(qctx)
			if err != nil {
				return fmt.Errorf("failed to list services: %w", err)
			}

			report := &StatusReport{Containers: containers}
			report.Init(header.KindStatusReport, version)
			report.Set("project", a.cfg.ProjectDir)

			h, err := a.checker().Check(ctx)
			if err != nil {
				report.HealthError = errorMessage(err)
			} else {
				report.Health = h
			}

			if err := a.write(ctx, cmd, report); err != nil {
				return err
			}
			if report.HealthError != "" {
				a.warn("Health check failed: %s", report.HealthError)
			}
			return nil
		},
	}
}

func (a *app) statsCmd() *cli.Command {
	return &cli.Command{
		Name:     "stats",
		Category: categoryMonitor,
		Usage:    "Show container resource usage",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := a.compose(ctx)
			if err != nil {
				return err
			}
			stats, err := c.Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to read container stats: %w", err)
			}
			return a.write(ctx, cmd, stats)
		},
	}
}

func (a *app) healthCmd() *cli.Command {
	return &cli.Command{
		Name:     "health",
		Category: categoryMonitor,
		Usage:    "Query the app health endpoint",
		Flags: []cli.Flag{
			waitFlag(),
			&cli.BoolFlag{Name: "strict", Usage: "exit non-zero when the app is not healthy"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a.info("Checking %s", a.cfg.HealthURL())

			var (
				report *health.Report
				err    error
			)
			if cmd.Bool("wait") {
				report, err = a.checker().Wait(ctx, a.pollInterval, a.waitTimeout)
			} else {
				report, err = a.checker().Check(ctx)
			}
			if err != nil {
				if cmd.Bool("strict") {
					return fmt.Errorf("health check failed: %w", err)
				}
				a.soft(err, "Health check failed")
				return nil
			}

			if err := a.write(ctx, cmd, report); err != nil {
				return err
			}
			if !report.Healthy() {
				a.warn("Application reports %q", report.Status)
				if cmd.Bool("strict") {
					return fmt.Errorf("application is %s", report.Status)
				}
			}
			return nil
		},
	}
}

func (a *app) watchCmd() *cli.Command {
	return &cli.Command{
		Name:     "watch",
		Category: categoryMonitor,
		Usage:    "Poll the app health and serve status and Prometheus metrics",
		Description: `Polls the app health endpoint every --interval, the same cadence as the
container HEALTHCHECK, and serves:

  GET /health      liveness of the watcher
  GET /ready       200 while the app is healthy
  GET /metrics     Prometheus metrics
  GET /v1/status   last health snapshot

Stops gracefully on SIGINT or SIGTERM.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "listen address (default :9090, env RP_WATCH_ADDR)",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Value: defaults.HealthPollInterval,
				Usage: "health poll interval",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := api.Options{
				Address:  cmd.String("listen"),
				Interval: cmd.Duration("interval"),
				Version:  version,
			}
			a.info("Watching %s", a.cfg.HealthURL())
			return api.Serve(ctx, a.cfg, opts)
		},
	}
}
