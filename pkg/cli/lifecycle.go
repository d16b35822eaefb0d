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
	"github.com/researchplatform/rpctl/pkg/workspace"
)

func (a *app) workspace() *workspace.Workspace {
	return workspace.New(a.cfg.ProjectDir,
		workspace.WithEnvFile(a.cfg.EnvFile),
		workspace.WithLogDir(a.cfg.LogDir),
	)
}

func (a *app) setupCmd() *cli.Command {
	return &cli.Command{
		Name:     "setup",
		Category: categoryLifecycle,
		Usage:    "Create .env and the directories the app expects",
		Description: `Creates .env from .env.example or a built-in template when it does not
exist, and creates templates, static, logs, uploads and server_files with its
four subfolders. Existing files are never overwritten, so setup can be run
any number of times.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.setup(ctx, cmd)
		},
	}
}

func (a *app) setup(ctx context.Context, cmd *cli.Command) error {
	a.info("Setting up Multi-API Research Platform...")

	report, err := a.workspace().Setup()
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	if err := a.write(ctx, cmd, report); err != nil {
		return err
	}

	for _, e := range report.Entries {
		if e.Kind == "file" && e.Action != workspace.ActionPresent {
			a.warn("Created %s, edit it and add your API keys", a.cfg.EnvFile)
		}
	}
	a.success("Setup complete")
	return nil
}

func (a *app) buildCmd() *cli.Command {
	return &cli.Command{
		Name:     "build",
		Category: categoryLifecycle,
		Usage:    "Build the images without cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "pull", Usage: "always pull newer base images"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.build(ctx, compose.BuildOptions{NoCache: true, Pull: cmd.Bool("pull")})
		},
	}
}

func (a *app) buildFastCmd() *cli.Command {
	return &cli.Command{
		Name:     "build-fast",
		Category: categoryLifecycle,
		Usage:    "Build the images using the layer cache",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return a.build(ctx, compose.BuildOptions{})
		},
	}
}

func (a *app) build(ctx context.Context, opts compose.BuildOptions) error {
	c, err := a.compose(ctx)
	if err != nil {
		return err
	}
	a.info("Building Docker images...")
	if err := c.Build(ctx, opts); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	a.success("Build complete")
	return nil
}

func waitFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "wait",
		Usage: "wait until the app reports healthy",
	}
}

func (a *app) upCmd() *cli.Command {
	return &cli.Command{
		Name:     "up",
		Category: categoryLifecycle,
		Usage:    "Start all services in the background",
		Flags:    []cli.Flag{waitFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := a.up(ctx); err != nil {
				return err
			}
			if cmd.Bool("wait") {
				a.waitHealthy(ctx)
			}
			return nil
		},
	}
}

func (a *app) up(ctx context.Context) error {
	c, err := a.compose(ctx)
	if err != nil {
		return err
	}
	a.info("Starting services...")
	if err := c.Up(ctx, compose.UpOptions{Detach: true}); err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}
	a.success("Services started")
	a.info("Application: %s", a.cfg.BaseURL())
	return nil
}

func (a *app) downCmd() *cli.Command {
	return &cli.Command{
		Name:     "down",
		Category: categoryLifecycle,
		Usage:    "Stop and remove all services",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return a.down(ctx, compose.DownOptions{}, "Services stopped")
		},
	}
}

func (a *app) down(ctx context.Context, opts compose.DownOptions, done string) error {
	c, err := a.compose(ctx)
	if err != nil {
		return err
	}
	a.info("Stopping services...")
	if err := c.Down(ctx, opts); err != nil {
		return fmt.Errorf("failed to stop services: %w", err)
	}
	a.success("%s", done)
	return nil
}

func (a *app) restartCmd() *cli.Command {
	return &cli.Command{
		Name:     "restart",
		Category: categoryLifecycle,
		Usage:    "Restart all services",
		Action: func(ctx context.Context, _ *cli.Command) error {
			c, err := a.compose(ctx)
			if err != nil {
				return err
			}
			a.info("Restarting services...")
			if err := c.Restart(ctx); err != nil {
				return fmt.Errorf("failed to restart services: %w", err)
			}
			a.success("Services restarted")
			return nil
		},
	}
}

func (a *app) stopCmd() *cli.Command {
	return &cli.Command{
		Name:     "stop",
		Category: categoryLifecycle,
		Usage:    "Stop services without removing them",
		Action: func(ctx context.Context, _ *cli.Command) error {
			c, err := a.compose(ctx)
			if err != nil {
				return err
			}
			if err := c.Stop(ctx); err != nil {
				return fmt.Errorf("failed to stop services: %w", err)
			}
			a.success("Services stopped")
			return nil
		},
	}
}

func (a *app) startCmd() *cli.Command {
	return &cli.Command{
		Name:     "start",
		Category: categoryLifecycle,
		Usage:    "Start previously stopped services",
		Action: func(ctx context.Context, _ *cli.Command) error {
			c, err := a.compose(ctx)
			if err != nil {
				return err
			}
			if err := c.Start(ctx); err != nil {
				return fmt.Errorf("failed to start services: %w", err)
			}
			a.success("Services started")
			return nil
		},
	}
}

func (a *app) devCmd() *cli.Command {
	return &cli.Command{
		Name:     "dev",
		Category: categoryLifecycle,
		Usage:    "Run the services attached, with Flask debug mode",
		Action: func(ctx context.Context, _ *cli.Command) error {
			c, err := a.compose(ctx)
			if err != nil {
				return err
			}
			a.info("Starting in development mode...")
			return c.Up(ctx, compose.UpOptions{Env: []string{"FLASK_ENV=development", "FLASK_DEBUG=true"}})
		},
	}
}

func (a *app) quickStartCmd() *cli.Command {
	return &cli.Command{
		Name:     "quick-start",
		Category: categoryLifecycle,
		Usage:    "Set up, build, start and wait for the app",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := a.setup(ctx, cmd); err != nil {
				return err
			}
			if err := a.build(ctx, compose.BuildOptions{}); err != nil {
				return err
			}
			if err := a.up(ctx); err != nil {
				return err
			}
			if a.waitHealthy(ctx) {
				a.success("Platform ready at %s", a.cfg.BaseURL())
			}
			return nil
		},
	}
}

func (a *app) rebuildCmd() *cli.Command {
	return &cli.Command{
		Name:     "rebuild",
		Category: categoryLifecycle,
		Usage:    "Stop, rebuild without cache and start again",
		Action: func(ctx context.Context, _ *cli.Command) error {
			if err := a.down(ctx, compose.DownOptions{}, "Services stopped"); err != nil {
				return err
			}
			if err := a.build(ctx, compose.BuildOptions{NoCache: true}); err != nil {
				return err
			}
			return a.up(ctx)
		},
	}
}

func (a *app) refreshCmd() *cli.Command {
	return &cli.Command{
		Name:     "refresh",
		Category: categoryLifecycle,
		Usage:    "Restart the app service and wait until it is healthy",
		Action: func(ctx context.Context, _ *cli.Command) error {
			c, err := a.compose(ctx)
			if err != nil {
				return err
			}
			a.info("Refreshing %s...", a.cfg.AppService)
			if err := c.Restart(ctx, a.cfg.AppService); err != nil {
				return fmt.Errorf("failed to restart %s: %w", a.cfg.AppService, err)
			}
			a.waitHealthy(ctx)
			return nil
		},
	}
}

func (a *app) updateCmd() *cli.Command {
	return &cli.Command{
		Name:     "update",
		Category: categoryMaint,
		Usage:    "Pull the latest code, rebuild and restart",
		Action: func(ctx context.Context, _ *cli.Command) error {
			a.info("Pulling latest changes...")
			pull := compose.Command{
				Name:   "git",
				Args:   []string{"pull"},
				Dir:    a.cfg.ProjectDir,
				Stdout: a.stdout,
				Stderr: a.stderr,
			}
			if err := a.runner.Run(ctx, pull); err != nil {
				return fmt.Errorf("git pull failed: %w", err)
			}
			if err := a.build(ctx, compose.BuildOptions{}); err != nil {
				return err
			}
			if err := a.up(ctx); err != nil {
				return err
			}
			a.success("Update complete")
			return nil
		},
	}
}

func (a *app) cleanCmd() *cli.Command {
	return &cli.Command{
		Name:     "clean",
		Category: categoryMaint,
		Usage:    "Remove containers, local images and orphans",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return a.down(ctx, compose.DownOptions{RemoveImages: "local", RemoveOrphans: true}, "Cleanup complete")
		},
	}
}

func forceFlag(usage string) cli.Flag {
	return &cli.BoolFlag{Name: "force", Aliases: []string{"y"}, Usage: usage}
}

func (a *app) cleanVolumesCmd() *cli.Command {
	return &cli.Command{
		Name:     "clean-volumes",
		Category: categoryMaint,
		Usage:    "Remove containers and their volumes, deleting Redis data",
		Flags:    []cli.Flag{forceFlag("do not ask for confirmation")},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Bool("force") {
				ok, err := a.confirm("This deletes all volumes including Redis data. Continue?")
				if err != nil {
					return err
				}
				if !ok {
					a.warn("Aborted")
					return nil
				}
			}
			return a.down(ctx, compose.DownOptions{Volumes: true, RemoveOrphans: true}, "Volumes removed")
		},
	}
}

func (a *app) pruneCmd() *cli.Command {
	return &cli.Command{
		Name:     "prune",
		Category: categoryMaint,
		Usage:    "Remove unused Docker data",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "also remove unused images"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := a.compose(ctx)
			if err != nil {
				return err
			}
			a.info("Pruning unused Docker data...")
			if err := c.SystemPrune(ctx, cmd.Bool("all")); err != nil {
				return fmt.Errorf("prune failed: %w", err)
			}
			a.success("Prune complete")
			return nil
		},
	}
}

// waitHealthy polls the health endpoint until the app is healthy. A timeout
// is reported, not returned.
func (a *app) waitHealthy(ctx context.Context) bool {
	a.info("Waiting for %s...", a.cfg.HealthURL())
	report, err := a.checker().Wait(ctx, a.pollInterval, a.waitTimeout)
	if !a.soft(err, "Application did not become healthy") {
		return false
	}
	a.success("Application is %s", report.Status)
	return true
}
