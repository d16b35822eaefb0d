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

	"github.com/urfave/cli/v3"
)

func (a *app) exec(ctx context.Context, service string, command ...string) error {
	c, err := a.compose(ctx)
	if err != nil {
		return err
	}
	return c.Exec(ctx, service, true, command...)
}

func (a *app) shellCmd() *cli.Command {
	return &cli.Command{
		Name:     "shell",
		Category: categoryDebug,
		Usage:    "Open a shell in the app container",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return a.exec(ctx, a.cfg.AppService, "/bin/bash")
		},
	}
}

func (a *app) shellRedisCmd() *cli.Command {
	return &cli.Command{
		Name:     "shell-redis",
		Category: categoryRedis,
		Usage:    "Open redis-cli in the redis container",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return a.exec(ctx, a.cfg.RedisService, "redis-cli")
		},
	}
}

func (a *app) pythonShellCmd() *cli.Command {
	return &cli.Command{
		Name:     "python-shell",
		Category: categoryDebug,
		Usage:    "Open a Python interpreter in the app container",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return a.exec(ctx, a.cfg.AppService, "python")
		},
	}
}
