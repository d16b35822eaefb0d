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

	"github.com/researchplatform/rpctl/pkg/redisadmin"
)

func (a *app) redis() *redisadmin.Client {
	return redisadmin.New(redisadmin.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
}

func (a *app) redisFlushCmd() *cli.Command {
	return &cli.Command{
		Name:     "redis-flush",
		Category: categoryRedis,
		Usage:    "Delete all keys of the Redis cache",
		Flags: []cli.Flag{
			forceFlag("do not ask for confirmation"),
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "flush every database, not only the selected one"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rc := a.redis()
			defer rc.Close()

			res, err := rc.Flush(ctx, redisadmin.FlushOptions{
				All:     cmd.Bool("all"),
				Force:   cmd.Bool("force"),
				Confirm: a.confirm,
			})
			if err != nil {
				return fmt.Errorf("redis flush failed: %w", err)
			}
			if !res.Flushed {
				a.warn("Aborted, nothing was flushed")
				return nil
			}
			a.success("Redis cache cleared (%s, %d keys)", res.Scope, res.Keys)
			return nil
		},
	}
}

func (a *app) redisInfoCmd() *cli.Command {
	return &cli.Command{
		Name:      "redis-info",
		Category:  categoryRedis,
		Usage:     "Show Redis server information",
		ArgsUsage: "[section...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "raw", Usage: "show every INFO field instead of the summary"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rc := a.redis()
			defer rc.Close()

			info, err := rc.Info(ctx, cmd.Args().Slice()...)
			if err != nil {
				return err
			}
			if cmd.Bool("raw") || cmd.Args().Present() {
				return a.write(ctx, cmd, info)
			}
			return a.write(ctx, cmd, info.Summary())
		},
	}
}

func (a *app) redisMonitorCmd() *cli.Command {
	return &cli.Command{
		Name:     "redis-monitor",
		Category: categoryRedis,
		Usage:    "Stream every command processed by Redis until interrupted",
		Action: func(ctx context.Context, _ *cli.Command) error {
			rc := a.redis()
			defer rc.Close()

			a.info("Monitoring %s, press Ctrl+C to stop", rc.Addr())
			return rc.Monitor(ctx, a.stdout)
		},
	}
}
