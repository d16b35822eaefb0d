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

package api

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/researchplatform/rpctl/pkg/config"
	"github.com/researchplatform/rpctl/pkg/defaults"
	"github.com/researchplatform/rpctl/pkg/health"
	"github.com/researchplatform/rpctl/pkg/logging"
	"github.com/researchplatform/rpctl/pkg/server"
)

const (
	name           = "rpctl-watch"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags, e.g.
	// -X "github.com/researchplatform/rpctl/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Options tune Serve. Zero values fall back to the configuration.
type Options struct {
	// Address overrides cfg.WatchAddr.
	Address string
	// Interval is the health poll interval, default 30s.
	Interval time.Duration
	// Version is reported by GET /.
	Version string
}

func (o Options) withDefaults(cfg *config.Config) Options {
	if o.Address == "" {
		o.Address = cfg.WatchAddr
	}
	if o.Interval <= 0 {
		o.Interval = defaults.HealthPollInterval
	}
	if o.Version == "" {
		o.Version = version
	}
	return o
}

// Serve polls the app health endpoint and serves the watch endpoints until
// ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config, opts Options) error {
	opts = opts.withDefaults(cfg)

	mon := health.NewMonitor(health.NewChecker(cfg.HealthURL()), opts.Interval)
	s := server.New(
		server.WithName(name),
		server.WithVersion(opts.Version),
		server.WithAddress(opts.Address),
		server.WithStatusSource(mon),
	)

	slog.Info("watching application",
		"url", cfg.HealthURL(),
		"interval", opts.Interval,
		"address", opts.Address)

	if err := server.Run(ctx, s, mon.Run); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

// Main is the entrypoint of the rpctl-watch daemon. It blocks until SIGINT
// or SIGTERM.
func Main() error {
	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	cfg, err := config.NewBuilder().WithEnv().WithFile(os.Getenv("RP_CONFIG")).Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Serve(ctx, cfg, Options{})
}
