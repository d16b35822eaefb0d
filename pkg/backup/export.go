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
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/researchplatform/rpctl/pkg/errors"
)

const (
	// ExportPrefix starts every export file name.
	ExportPrefix = "export_"
	// ManifestName is the manifest entry at the root of an export.
	ManifestName = "manifest.json"
)

// ExportEntries are the user data directories included in an export.
var ExportEntries = []string{"server_files", "uploads"}

// Manifest describes the content of an export.
type Manifest struct {
	ID      string    `json:"id" yaml:"id"`
	Created time.Time `json:"created" yaml:"created"`
	Sources []string  `json:"sources" yaml:"sources"`
	Skipped []string  `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Files   int       `json:"files" yaml:"files"`
	Bytes   int64     `json:"bytes" yaml:"bytes"`
}

// ExportResult describes a written export.
type ExportResult struct {
	Path     string   `json:"path" yaml:"path"`
	Size     int64    `json:"size" yaml:"size"`
	Manifest Manifest `json:"manifest" yaml:"manifest"`
}

// Export archives the user data directories together with a manifest.
func (m *Manager) Export(ctx context.Context) (*ExportResult, error) {
	dir := m.resolve(m.exportDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create export directory", err)
	}

	created := m.now()
	manifest := Manifest{
		ID:      uuid.NewString(),
		Created: created.UTC(),
	}

	// a first pass counts files so the manifest can be written with the data
	counted, err := writeTarGz(ctx, io.Discard, projectSources(m.root, ExportEntries))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to scan export data", err)
	}
	if counted.Found == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no data directories to export")
	}
	manifest.Files = counted.Files
	manifest.Bytes = counted.Bytes
	manifest.Skipped = counted.Skipped
	for _, e := range ExportEntries {
		if !slices.Contains(counted.Skipped, e) {
			manifest.Sources = append(manifest.Sources, e)
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to encode manifest", err)
	}

	target := filepath.Join(dir, ExportPrefix+created.Format(TimestampLayout)+ArchiveExt)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.NewWithContext(errors.ErrCodeConflict, "an export with this timestamp already exists",
				map[string]any{"path": target})
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create export", err)
	}

	_, err = writeTarGz(ctx, f, projectSources(m.root, manifest.Sources), extraFile{Name: ManifestName, Data: data})
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to write export", err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to stat export", err)
	}
	slog.Info("data exported", "path", target, "id", manifest.ID, "files", manifest.Files)

	return &ExportResult{Path: target, Size: info.Size(), Manifest: manifest}, nil
}

