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

	"github.com/researchplatform/rpctl/pkg/compose"
	"github.com/researchplatform/rpctl/pkg/defaults"
)

func tailFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "tail",
		Aliases: []string{"n"},
		Value:   defaults.TailLines,
		Usage:   "number of lines to show from the end of the logs, 0 for all",
	}
}

func noFollowFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "no-follow",
		Usage: "print the logs and exit instead of following them",
	}
}

func (a *app) serviceLogs(ctx context.Context, cmd *cli.Command, services ...string) error {
	c, err := a.compose(ctx)
	if err != nil {
		return err
	}
	return c.Logs(ctx, compose.LogsOptions{
		Follow:   !cmd.Bool("no-follow"),
		Tail:     cmd.Int("tail"),
		Services: services,
	})
}

func (a *app) logsCmd() *cli.Command {
	return &cli.Command{
		Name:     "logs",
		Category: categoryMonitor,
		Usage:    "Follow the app service logs",
		Flags:    []cli.Flag{tailFlag(), noFollowFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.serviceLogs(ctx, cmd, a.cfg.AppService)
		},
	}
}

func (a *app) logsAllCmd() *cli.Command {
	return &cli.Command{
		Name:     "logs-all",
		Category: categoryMonitor,
		Usage:    "Follow the logs of all services",
		Flags:    []cli.Flag{tailFlag(), noFollowFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.serviceLogs(ctx, cmd)
		},
	}
}

func (a *app) logsRedisCmd() *cli.Command {
	return &cli.Command{
		Name:     "logs-redis",
		Category: categoryMonitor,
		Usage:    "Follow the redis service logs",
		Flags:    []cli.Flag{tailFlag(), noFollowFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.serviceLogs(ctx, cmd, a.cfg.RedisService)
		},
	}
}

func (a *app) tailLogsCmd() *cli.Command {
	return &cli.Command{
		Name:     "tail-logs",
		Category: categoryMonitor,
		Usage:    "Follow the application log files in the log directory",
		Flags:    []cli.Flag{tailFlag(), noFollowFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ws := a.workspace()
			if err := ws.TailLogs(ctx, a.stdout, cmd.Int("tail"), !cmd.Bool("no-follow")); err != nil {
				a.soft(err, "No log files to tail")
			}
			return nil
		},
	}
}

func (a *app) cleanLogsCmd() *cli.Command {
	return &cli.Command{
		Name:     "clean-logs",
		Category: categoryData,
		Usage:    "Delete application log files",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "older-than",
				Usage: "only delete files not modified within this duration, e.g. 168h",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			report, err := a.workspace().CleanLogs(cmd.Duration("older-than"))
			if err != nil {
				return fmt.Errorf("failed to clean logs: %w", err)
			}
			a.success("Removed %d log file(s) from %s", len(report.Removed), report.Dir)
			return nil
		},
	}
}
