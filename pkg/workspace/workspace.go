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

package workspace

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/researchplatform/rpctl/pkg/errors"
)

const (
	dirPerm     = 0o755
	envFilePerm = 0o600

	// EnvExample is copied to .env by Setup when present.
	EnvExample = ".env.example"
)

// ServerFileFolders are the shared folders under server_files/ used by the
// application pages.
var ServerFileFolders = []string{
	"pubmed-search",
	"literature-review",
	"research-assistant",
	"shared-articles",
}

// RequiredDirs lists the directories the image and the compose volumes expect,
// relative to the project root.
func RequiredDirs() []string {
	dirs := []string{"templates", "static", "logs", "uploads", "server_files"}
	for _, f := range ServerFileFolders {
		dirs = append(dirs, filepath.Join("server_files", f))
	}
	return dirs
}

// EnvTemplate is written to .env when no .env.example exists.
const EnvTemplate = `# Multi-API Research Platform configuration

# Claude (Anthropic)
CLAUDE_API_KEY=your_claude_api_key_here
CLAUDE_MODEL=claude-3-sonnet-20240229
CLAUDE_MAX_TOKENS=4000

# PubMed (NCBI E-utilities)
PUBMED_API_KEY=your_pubmed_api_key_here
PUBMED_EMAIL=user@example.com
PUBMED_TOOL=ResearchPlatform

# Asana
ASANA_ACCESS_TOKEN=your_asana_access_token_here
ASANA_WORKSPACE_ID=your_asana_workspace_id_here

# Flask
FLASK_ENV=production
FLASK_DEBUG=false
SECRET_KEY=your_secret_key_here
`

// Workspace is a project working tree.
type Workspace struct {
	root    string
	envFile string
	logDir  string
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithEnvFile overrides the .env location, relative to the root unless absolute.
func WithEnvFile(path string) Option {
	return func(w *Workspace) {
		w.envFile = path
	}
}

// WithLogDir overrides the log directory, relative to the root unless absolute.
func WithLogDir(path string) Option {
	return func(w *Workspace) {
		w.logDir = path
	}
}

// New returns a Workspace rooted at root.
func New(root string, opts ...Option) *Workspace {
	w := &Workspace{
		root:    root,
		envFile: ".env",
		logDir:  "logs",
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Root returns the project directory.
func (w *Workspace) Root() string {
	return w.root
}

func (w *Workspace) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(w.root, p)
}

// LogDir returns the resolved log directory.
func (w *Workspace) LogDir() string {
	return w.path(w.logDir)
}

// Entry is one item handled by Setup.
type Entry struct {
	Path   string `json:"path" yaml:"path"`
	Kind   string `json:"kind" yaml:"kind"`
	Action string `json:"action" yaml:"action"`
}

// Setup actions.
const (
	ActionCreated = "created"
	ActionCopied  = "copied"
	ActionPresent = "present"
)

// SetupReport lists what Setup created or found.
type SetupReport struct {
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Created returns the number of entries that did not exist before.
func (r *SetupReport) Created() int {
	n := 0
	for _, e := range r.Entries {
		if e.Action != ActionPresent {
			n++
		}
	}
	return n
}

// TableHeader implements serializer.Tabular.
func (r *SetupReport) TableHeader() []string {
	return []string{"PATH", "KIND", "ACTION"}
}

// TableRows implements serializer.Tabular.
func (r *SetupReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		rows = append(rows, []string{e.Path, e.Kind, e.Action})
	}
	return rows
}

// Setup creates the .env file when absent and all required directories.
// It never overwrites an existing .env and is safe to run repeatedly.
func (w *Workspace) Setup() (*SetupReport, error) {
	if err := os.MkdirAll(w.root, dirPerm); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create project directory", err)
	}

	report := &SetupReport{}

	envEntry, err := w.ensureEnvFile()
	if err != nil {
		return nil, err
	}
	report.Entries = append(report.Entries, envEntry)

	for _, d := range RequiredDirs() {
		e, err := ensureDir(w.root, d)
		if err != nil {
			return nil, err
		}
		report.Entries = append(report.Entries, e)
	}

	slog.Debug("workspace ready", "root", w.root, "created", report.Created())
	return report, nil
}

func (w *Workspace) ensureEnvFile() (Entry, error) {
	target := w.path(w.envFile)
	entry := Entry{Path: w.envFile, Kind: "file"}

	if info, err := os.Stat(target); err == nil {
		if info.IsDir() {
			return entry, errors.NewWithContext(errors.ErrCodeConflict,
				"env path exists and is a directory", map[string]any{"path": target})
		}
		entry.Action = ActionPresent
		return entry, nil
	}

	example := w.path(EnvExample)
	if src, err := os.Open(example); err == nil {
		defer src.Close()
		if err := writeExclusive(target, src); err != nil {
			return entry, err
		}
		entry.Action = ActionCopied
		slog.Info("created env file from example", "path", target)
		return entry, nil
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, envFilePerm)
	if err != nil {
		return entry, errors.Wrap(errors.ErrCodeInternal, "failed to create env file", err)
	}
	defer f.Close()
	if _, err := io.WriteString(f, EnvTemplate); err != nil {
		return entry, errors.Wrap(errors.ErrCodeInternal, "failed to write env file", err)
	}
	entry.Action = ActionCreated
	slog.Info("created env file from template", "path", target)
	return entry, nil
}

func writeExclusive(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, envFilePerm)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create env file", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return errors.Wrap(errors.ErrCodeInternal, "failed to copy env example", err)
	}
	return f.Close()
}

func ensureDir(root, rel string) (Entry, error) {
	path := filepath.Join(root, rel)
	entry := Entry{Path: rel, Kind: "dir"}

	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return entry, errors.NewWithContext(errors.ErrCodeConflict,
				"path exists and is not a directory", map[string]any{"path": path})
		}
		entry.Action = ActionPresent
		return entry, nil
	}

	if err := os.MkdirAll(path, dirPerm); err != nil {
		return entry, errors.WrapWithContext(errors.ErrCodeInternal, "failed to create directory", err,
			map[string]any{"path": path})
	}
	// MkdirAll is subject to the umask; the container user needs group/other read.
	if err := os.Chmod(path, dirPerm); err != nil {
		return entry, errors.Wrap(errors.ErrCodeInternal, "failed to set directory permissions", err)
	}
	entry.Action = ActionCreated
	return entry, nil
}

// Missing returns the required directories that do not exist.
func (w *Workspace) Missing() []string {
	var missing []string
	for _, d := range RequiredDirs() {
		if info, err := os.Stat(filepath.Join(w.root, d)); err != nil || !info.IsDir() {
			missing = append(missing, d)
		}
	}
	return missing
}
