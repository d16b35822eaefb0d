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

package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"

	"github.com/researchplatform/rpctl/pkg/errors"
	"github.com/researchplatform/rpctl/pkg/serializer"
)

// Builder collects configuration layers in priority order.
type Builder struct {
	layers  []*Config
	environ map[string]string
	err     error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		layers: make([]*Config, 0, 4),
	}
}

// WithEnvironment replaces the process environment used by WithEnv.
func (b *Builder) WithEnvironment(environ map[string]string) *Builder {
	b.environ = environ
	return b
}

// WithFlags adds values set on the command line. Zero fields are ignored.
func (b *Builder) WithFlags(cfg *Config) *Builder {
	if cfg != nil {
		b.layers = append(b.layers, cfg)
	}
	return b
}

// WithEnv adds values from environment variables.
func (b *Builder) WithEnv() *Builder {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: b.environ}); err != nil {
		b.err = stderrors.Join(b.err,
			errors.Wrap(errors.ErrCodeInvalidRequest, "failed to parse environment", err))
		return b
	}
	b.layers = append(b.layers, cfg)
	return b
}

// WithFile adds values from a YAML or JSON file. An explicit path must exist;
// an empty path falls back to .rpctl.yaml in the project directory when present.
func (b *Builder) WithFile(path string) *Builder {
	if path == "" {
		candidate := filepath.Join(b.projectDir(), DefaultConfigFile)
		if _, err := os.Stat(candidate); err != nil {
			return b
		}
		path = candidate
	} else if _, err := os.Stat(path); err != nil {
		b.err = stderrors.Join(b.err,
			errors.WrapWithContext(errors.ErrCodeNotFound, "config file not found", err,
				map[string]any{"path": path}))
		return b
	}

	cfg, err := serializer.FromFile[Config](path)
	if err != nil {
		b.err = stderrors.Join(b.err,
			errors.WrapWithContext(errors.ErrCodeInvalidRequest, "failed to read config file", err,
				map[string]any{"path": path}))
		return b
	}
	slog.Debug("loaded config file", "path", path)
	b.layers = append(b.layers, cfg)
	return b
}

// projectDir returns the first project directory set by the layers added so far.
func (b *Builder) projectDir() string {
	for _, l := range b.layers {
		if l.ProjectDir != "" {
			return l.ProjectDir
		}
	}
	return "."
}

// Build merges all layers over the defaults and validates the result.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occurred during building config: %w", b.err)
	}

	cfg := new(Config)
	for _, l := range append(b.layers, Defaults()) {
		if err := mergo.Merge(cfg, l); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "error merging configs", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
