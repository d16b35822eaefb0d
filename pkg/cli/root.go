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
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/researchplatform/rpctl/pkg/apis"
	"github.com/researchplatform/rpctl/pkg/compose"
	"github.com/researchplatform/rpctl/pkg/config"
	"github.com/researchplatform/rpctl/pkg/defaults"
	"github.com/researchplatform/rpctl/pkg/errors"
	"github.com/researchplatform/rpctl/pkg/logging"
	"github.com/researchplatform/rpctl/pkg/netdiag"
	"github.com/researchplatform/rpctl/pkg/serializer"
)

const (
	name           = "rpctl"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Command categories shown in help.
const (
	categoryLifecycle = "Lifecycle"
	categoryMonitor   = "Monitoring"
	categoryData      = "Data"
	categoryRedis     = "Redis"
	categoryDebug     = "Debugging"
	categoryMaint     = "Maintenance"
)

// app carries the dependencies shared by all commands. Tests replace the
// runner, streams and clock.
type app struct {
	runner  compose.Runner
	environ map[string]string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	now     func() time.Time

	// pollInterval and waitTimeout bound waiting for a healthy app.
	pollInterval time.Duration
	waitTimeout  time.Duration

	endpoints apis.Endpoints
	diagOpts  []netdiag.Option

	cfg *config.Config
}

func newApp() *app {
	return &app{
		runner: compose.NewExecRunner(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		now:    time.Now,

		pollInterval: defaults.StartupPollInterval,
		waitTimeout:  defaults.StartupWaitTimeout,
	}
}

// Execute runs the rpctl command tree. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().rootCmd().Run(ctx, os.Args); err != nil {
		slog.Debug("command failed", "code", errors.CodeOf(err), "error", err)
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+errorMessage(err)))
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Operate the Multi-API Research Platform",
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		Reader:                a.stdin,
		Writer:                a.stdout,
		ErrWriter:             a.stderr,
		Description: `rpctl builds, runs, probes and operates the research platform Compose
project: the Flask app service and its Redis service.

Settings are layered, highest priority first: flags, environment variables
(NAS_IP, HOST_PORT, RP_*), the YAML config file and built-in defaults.

Quick start:
  rpctl quick-start
  rpctl status
  rpctl test-apis`,
		Flags:  globalFlags(),
		Before: a.before,
		Commands: []*cli.Command{
			a.setupCmd(),
			a.buildCmd(),
			a.buildFastCmd(),
			a.upCmd(),
			a.downCmd(),
			a.restartCmd(),
			a.stopCmd(),
			a.startCmd(),
			a.devCmd(),
			a.quickStartCmd(),
			a.rebuildCmd(),
			a.refreshCmd(),
			a.logsCmd(),
			a.logsAllCmd(),
			a.logsRedisCmd(),
			a.tailLogsCmd(),
			a.statusCmd(),
			a.statsCmd(),
			a.healthCmd(),
			a.watchCmd(),
			a.testAPIsCmd(),
			a.shellCmd(),
			a.shellRedisCmd(),
			a.pythonShellCmd(),
			a.backupCmd(),
			a.restoreCmd(),
			a.backupListCmd(),
			a.backupPushCmd(),
			a.exportDataCmd(),
			a.cleanLogsCmd(),
			a.redisFlushCmd(),
			a.redisInfoCmd(),
			a.redisMonitorCmd(),
			a.updateCmd(),
			a.cleanCmd(),
			a.cleanVolumesCmd(),
			a.pruneCmd(),
			a.debugEnvCmd(),
			a.debugNetworkCmd(),
			a.debugNFSCmd(),
			a.validateCmd(),
			a.versionCmd(),
			a.infoCmd(),
		},
	}
}

// before configures logging and resolves the configuration once global
// flags are parsed.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))

	if f := serializer.Format(cmd.String("format")); f.IsUnknown() {
		return ctx, fmt.Errorf("unknown output format: %q, supported: %v", f, serializer.SupportedFormats())
	}

	cfg, err := config.NewBuilder().
		WithFlags(flagConfig(cmd)).
		WithEnvironment(a.environ).
		WithEnv().
		WithFile(cmd.String("config")).
		Build()
	if err != nil {
		return ctx, err
	}
	a.cfg = cfg

	slog.Debug("configuration resolved",
		"projectDir", cfg.ProjectDir,
		"composeFile", cfg.ComposeFile,
		"nasIP", cfg.NASIP,
		"hostPort", cfg.HostPort)
	return ctx, nil
}

// flagConfig is the highest-priority configuration layer. Unset flags are
// zero and do not override lower layers.
func flagConfig(cmd *cli.Command) *config.Config {
	return &config.Config{
		ProjectDir:  cmd.String("project-dir"),
		ComposeFile: cmd.String("compose-file"),
		NASIP:       cmd.String("nas-ip"),
		HostPort:    cmd.Int("port"),
	}
}

// compose returns a client for the configured project.
func (a *app) compose(ctx context.Context) (*compose.Client, error) {
	return compose.New(ctx, compose.Options{
		File:        a.cfg.ComposePath(),
		ProjectName: a.cfg.ProjectName,
		Dir:         a.cfg.ProjectDir,
		Runner:      a.runner,
		Env:         a.composeEnv(),
		Stdin:       a.stdin,
		Stdout:      a.stdout,
		Stderr:      a.stderr,
	})
}

// composeEnv exports the variables the compose file interpolates. Every
// compose command gets them, not just up.
func (a *app) composeEnv() []string {
	return []string{
		fmt.Sprintf("HOST_PORT=%d", a.cfg.HostPort),
		"NAS_IP=" + a.cfg.NASIP,
	}
}
