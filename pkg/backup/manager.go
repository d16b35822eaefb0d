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

package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/researchplatform/rpctl/pkg/errors"
)

const (
	// ArchivePrefix starts every backup file name.
	ArchivePrefix = "backup_"
	// ArchiveExt ends every backup and export file name.
	ArchiveExt = ".tar.gz"
	// TimestampLayout is the time format embedded in archive names.
	TimestampLayout = "20060102_150405"
)

// DefaultEntries are archived by Create, relative to the project directory.
// The compose file name is appended by the manager.
var DefaultEntries = []string{"server_files", "templates", "static", ".env"}

// ArchiveName returns the file name of a backup taken at t.
func ArchiveName(t time.Time) string {
	return ArchivePrefix + t.Format(TimestampLayout) + ArchiveExt
}

// ParseArchiveName extracts the timestamp from a backup file name.
func ParseArchiveName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, ArchivePrefix) || !strings.HasSuffix(name, ArchiveExt) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, ArchivePrefix), ArchiveExt)
	t, err := time.ParseInLocation(TimestampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Archive describes a backup file.
type Archive struct {
	Name     string    `json:"name" yaml:"name"`
	Path     string    `json:"path" yaml:"path"`
	Size     int64     `json:"size" yaml:"size"`
	Created  time.Time `json:"created" yaml:"created"`
	Checksum string    `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Files    int       `json:"files,omitempty" yaml:"files,omitempty"`
	Skipped  []string  `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Tag returns the archive name without extension, usable as an OCI tag.
func (a Archive) Tag() string {
	return strings.TrimSuffix(a.Name, ArchiveExt)
}

// Archives is a list of backups, newest first.
type Archives []Archive

// TableHeader implements serializer.Tabular.
func (l Archives) TableHeader() []string {
	return []string{"NAME", "CREATED", "SIZE", "SHA256"}
}

// TableRows implements serializer.Tabular.
func (l Archives) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, a := range l {
		sum := a.Checksum
		if len(sum) > 12 {
			sum = sum[:12]
		}
		if sum == "" {
			sum = "-"
		}
		rows = append(rows, []string{a.Name, a.Created.Format(time.DateTime), HumanBytes(a.Size), sum})
	}
	return rows
}

// Manager handles the archives of one project.
type Manager struct {
	root        string
	dir         string
	exportDir   string
	composeFile string
	now         func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for archive names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithExportDir sets where Export writes, relative to the project unless absolute.
func WithExportDir(dir string) Option {
	return func(m *Manager) {
		m.exportDir = dir
	}
}

// WithComposeFile sets the compose file included in backups.
func WithComposeFile(name string) Option {
	return func(m *Manager) {
		m.composeFile = name
	}
}

// NewManager returns a Manager for the project at root storing archives in dir.
func NewManager(root, dir string, opts ...Option) *Manager {
	m := &Manager{
		root:        root,
		dir:         dir,
		exportDir:   "exports",
		composeFile: "docker-compose.yml",
		now:         time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.root, p)
}

// Dir returns the resolved backup directory.
func (m *Manager) Dir() string {
	return m.resolve(m.dir)
}

// Entries returns the archive names of what Create archives.
func (m *Manager) Entries() []string {
	sources := m.sources()
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name)
	}
	return names
}

// sources lists the backup sources. A compose file outside the project
// directory is stored under its base name so the archive stays restorable.
func (m *Manager) sources() []source {
	out := projectSources(m.root, DefaultEntries)
	if m.composeFile == "" {
		return out
	}
	p := m.resolve(m.composeFile)
	name := filepath.Base(p)
	if rel, err := filepath.Rel(m.root, p); err == nil && filepath.IsLocal(rel) {
		name = rel
	}
	return append(out, source{Name: filepath.ToSlash(name), Path: p})
}

// CreateOptions controls Create.
type CreateOptions struct {
	// Keep prunes all but the newest Keep archives afterwards. Zero keeps all.
	Keep int
}

// Create writes a new backup archive and its checksum sidecar.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*Archive, error) {
	dir := m.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create backup directory", err)
	}

	created := m.now()
	name := ArchiveName(created)
	target := filepath.Join(dir, name)

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.NewWithContext(errors.ErrCodeConflict, "a backup with this timestamp already exists",
				map[string]any{"archive": target})
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create archive", err)
	}

	stats, err := writeTarGz(ctx, f, m.sources())
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to write backup archive", err)
	}
	if stats.Found == 0 {
		_ = os.Remove(target)
		return nil, errors.New(errors.ErrCodeNotFound, "nothing to back up")
	}

	sum, err := WriteChecksum(target)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to stat archive", err)
	}

	archive := &Archive{
		Name:     name,
		Path:     target,
		Size:     info.Size(),
		Created:  created,
		Checksum: sum,
		Files:    stats.Files,
		Skipped:  stats.Skipped,
	}
	slog.Info("backup created", "archive", target, "files", stats.Files, "size", info.Size())

	if opts.Keep > 0 {
		if _, err := m.Prune(opts.Keep); err != nil {
			slog.Warn("failed to prune old backups", "error", err)
		}
	}
	return archive, nil
}

// List returns the backups in the backup directory, newest first.
func (m *Manager) List() (Archives, error) {
	dir := m.Dir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Archives{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to read backup directory", err)
	}

	archives := Archives{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		created, ok := ParseArchiveName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, e.Name())
		sum, err := ReadChecksum(path)
		if err != nil {
			slog.Warn("unreadable checksum", "archive", path, "error", err)
		}
		archives = append(archives, Archive{
			Name:     e.Name(),
			Path:     path,
			Size:     info.Size(),
			Created:  created,
			Checksum: sum,
		})
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].Created.After(archives[j].Created)
	})
	return archives, nil
}

// Latest returns the newest backup. It fails with NOT_FOUND when there is none.
func (m *Manager) Latest() (*Archive, error) {
	archives, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(archives) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound, "no backup found",
			map[string]any{"dir": m.Dir()})
	}
	return &archives[0], nil
}

// Find resolves a backup by file name or path. An empty name means the latest.
func (m *Manager) Find(name string) (*Archive, error) {
	if name == "" || name == "latest" {
		return m.Latest()
	}

	candidates := []string{name}
	if !filepath.IsAbs(name) {
		candidates = append(candidates, filepath.Join(m.Dir(), name), m.resolve(name))
	}
	for _, p := range candidates {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		created, ok := ParseArchiveName(filepath.Base(p))
		if !ok {
			created = info.ModTime()
		}
		sum, _ := ReadChecksum(p)
		return &Archive{
			Name:     filepath.Base(p),
			Path:     p,
			Size:     info.Size(),
			Created:  created,
			Checksum: sum,
		}, nil
	}
	return nil, errors.NewWithContext(errors.ErrCodeNotFound, "backup not found",
		map[string]any{"name": name, "dir": m.Dir()})
}

// Prune removes all but the newest keep archives and returns the removed ones.
func (m *Manager) Prune(keep int) (Archives, error) {
	if keep <= 0 {
		return Archives{}, nil
	}
	archives, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(archives) <= keep {
		return Archives{}, nil
	}

	removed := archives[keep:]
	for _, a := range removed {
		if err := os.Remove(a.Path); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "failed to remove old backup", err)
		}
		_ = os.Remove(a.Path + ChecksumSuffix)
		slog.Info("removed old backup", "archive", a.Name)
	}
	return removed, nil
}

// Hook runs around a restore, typically to stop and start services.
type Hook func(ctx context.Context) error

// RestoreOptions controls Restore.
type RestoreOptions struct {
	// Name selects the archive; empty restores the latest.
	Name string
	// SkipVerify restores even without a matching checksum sidecar.
	SkipVerify bool
	// Before runs after validation and before extraction.
	Before Hook
	// After runs after extraction, also when extraction failed.
	After Hook
}

// RestoreResult describes a completed restore.
type RestoreResult struct {
	Archive  Archive `json:"archive" yaml:"archive"`
	Files    int     `json:"files" yaml:"files"`
	Verified bool    `json:"verified" yaml:"verified"`
}

// Restore extracts a backup into the project directory.
func (m *Manager) Restore(ctx context.Context, opts RestoreOptions) (*RestoreResult, error) {
	archive, err := m.Find(opts.Name)
	if err != nil {
		return nil, err
	}

	verified := false
	if !opts.SkipVerify {
		present, err := VerifyChecksum(archive.Path)
		if err != nil {
			return nil, err
		}
		if !present {
			slog.Warn("no checksum sidecar, restoring unverified", "archive", archive.Name)
		}
		verified = present
	}

	// reject unsafe archives before touching services
	if _, err := listTarGz(archive.Path); err != nil {
		return nil, err
	}

	if opts.Before != nil {
		if err := opts.Before(ctx); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "pre-restore hook failed", err)
		}
	}

	files, extractErr := extractTarGz(ctx, archive.Path, m.root)

	if opts.After != nil {
		if err := opts.After(ctx); err != nil {
			if extractErr == nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, "post-restore hook failed", err)
			}
			slog.Error("post-restore hook failed", "error", err)
		}
	}
	if extractErr != nil {
		return nil, extractErr
	}

	slog.Info("backup restored", "archive", archive.Name, "files", files)
	return &RestoreResult{Archive: *archive, Files: files, Verified: verified}, nil
}

// HumanBytes renders n with a binary unit suffix.
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
