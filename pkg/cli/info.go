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
	"runtime"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/researchplatform/rpctl/pkg/compose"
	"github.com/researchplatform/rpctl/pkg/header"
	"github.com/researchplatform/rpctl/pkg/workspace"
)

// VersionInfo reports rpctl and container tooling versions.
type VersionInfo struct {
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
	Engine    string `json:"engine,omitempty" yaml:"engine,omitempty"`
	Compose   string `json:"compose,omitempty" yaml:"compose,omitempty"`
}

// TableHeader implements serializer.Tabular.
func (v *VersionInfo) TableHeader() []string {
	return []string{"COMPONENT", "VERSION"}
}

// TableRows implements serializer.Tabular.
func (v *VersionInfo) TableRows() [][]string {
	return [][]string{
		{v.Name, v.Version + " (" + v.Commit + ", " + v.Date + ")"},
		{"go", v.GoVersion + " " + v.Platform},
		{"docker", orDash(v.Engine)},
		{"compose", orDash(v.Compose)},
	}
}

func (a *app) versionCmd() *cli.Command {
	return &cli.Command{
		Name:     "version",
		Category: categoryMaint,
		Usage:    "Show rpctl, Docker and Compose versions",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := &VersionInfo{
				Name:      name,
				Version:   version,
				Commit:    commit,
				Date:      date,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			if v, err := compose.EngineVersion(ctx, a.runner); err == nil {
				info.Engine = v
			}
			if c, err := a.compose(ctx); err == nil {
				if v, err := c.Version(ctx); err == nil {
					info.Compose = c.Binary() + " " + v
				}
			}
			return a.write(ctx, cmd, info)
		},
	}
}

// PlatformInfo summarizes how rpctl sees the deployment.
type PlatformInfo struct {
	header.Header `json:",inline" yaml:",inline"`

	ProjectDir   string   `json:"projectDir" yaml:"projectDir"`
	ComposeFile  string   `json:"composeFile" yaml:"composeFile"`
	AppService   string   `json:"appService" yaml:"appService"`
	RedisService string   `json:"redisService" yaml:"redisService"`
	AppURL       string   `json:"appURL" yaml:"appURL"`
	HealthURL    string   `json:"healthURL" yaml:"healthURL"`
	HostPort     int      `json:"hostPort" yaml:"hostPort"`
	NASIP        string   `json:"nasIP" yaml:"nasIP"`
	RedisAddr    string   `json:"redisAddr" yaml:"redisAddr"`
	WatchAddr    string   `json:"watchAddr" yaml:"watchAddr"`
	BackupDir    string   `json:"backupDir" yaml:"backupDir"`
	Backups      int      `json:"backups" yaml:"backups"`
	LatestBackup string   `json:"latestBackup,omitempty" yaml:"latestBackup,omitempty"`
	MissingDirs  []string `json:"missingDirs,omitempty" yaml:"missingDirs,omitempty"`
}

// TableHeader implements serializer.Tabular.
func (p *PlatformInfo) TableHeader() []string {
	return []string{"KEY", "VALUE"}
}

// TableRows implements serializer.Tabular.
func (p *PlatformInfo) TableRows() [][]string {
	missing := "-"
	if len(p.MissingDirs) > 0 {
		missing = strconv.Itoa(len(p.MissingDirs)) + " missing, run 'rpctl setup'"
	}
	return [][]string{
		{"project", p.ProjectDir},
		{"compose file", p.ComposeFile},
		{"services", p.AppService + ", " + p.RedisService},
		{"app", p.AppURL},
		{"health", p.HealthURL},
		{"nas", p.NASIP},
		{"redis", p.RedisAddr},
		{"watch", p.WatchAddr},
		{"backups", strconv.Itoa(p.Backups) + " in " + p.BackupDir},
		{"latest backup", orDash(p.LatestBackup)},
		{"directories", missing},
	}
}

func (a *app) infoCmd() *cli.Command {
	return &cli.Command{
		Name:     "info",
		Category: categoryMaint,
		Usage:    "Show endpoints, services and directories of the platform",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m := a.backups()
			p := &PlatformInfo{
				ProjectDir:   a.cfg.ProjectDir,
				ComposeFile:  a.cfg.ComposePath(),
				AppService:   a.cfg.AppService,
				RedisService: a.cfg.RedisService,
				AppURL:       a.cfg.BaseURL(),
				HealthURL:    a.cfg.HealthURL(),
				HostPort:     a.cfg.HostPort,
				NASIP:        a.cfg.NASIP,
				RedisAddr:    a.cfg.Redis.Addr,
				WatchAddr:    a.cfg.WatchAddr,
				BackupDir:    m.Dir(),
				MissingDirs:  workspace.New(a.cfg.ProjectDir).Missing(),
			}
			p.Init(header.KindPlatformInfo, version)

			if archives, err := m.List(); a.soft(err, "Cannot list backups") {
				p.Backups = len(archives)
				if len(archives) > 0 {
					p.LatestBackup = archives[0].Name
				}
			}
			return a.write(ctx, cmd, p)
		},
	}
}
