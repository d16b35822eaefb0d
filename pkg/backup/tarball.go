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
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/researchplatform/rpctl/pkg/errors"
)

// tarStats counts what was written to an archive.
type tarStats struct {
	// Found is the number of sources that existed.
	Found   int
	Files   int
	Bytes   int64
	Skipped []string
}

// extraFile is an in-memory entry appended to an archive.
type extraFile struct {
	Name string
	Data []byte
}

// source is one top-level archive entry: Name inside the archive and Path
// on disk.
type source struct {
	Name string
	Path string
}

// projectSources maps project-relative names to sources under root.
func projectSources(root string, names []string) []source {
	out := make([]source, 0, len(names))
	for _, n := range names {
		out = append(out, source{Name: filepath.ToSlash(n), Path: filepath.Join(root, n)})
	}
	return out
}

// writeTarGz archives sources into w. Missing sources are skipped and
// reported. A source that is itself a symlink, such as server_files pointing
// at an NFS mount, is followed and stored under the source name. Links found
// inside a tree are not followed and are reported as skipped.
func writeTarGz(ctx context.Context, w io.Writer, sources []source, extras ...extraFile) (*tarStats, error) {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	stats := &tarStats{}

	for _, src := range sources {
		top, err := os.Lstat(src.Path)
		if err != nil {
			if os.IsNotExist(err) {
				slog.Warn("backup entry missing, skipping", "entry", src.Name)
				stats.Skipped = append(stats.Skipped, src.Name)
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", src.Name, err)
		}

		walkRoot := src.Path
		if top.Mode()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(src.Path)
			if err != nil {
				slog.Warn("backup entry is a broken link, skipping", "entry", src.Name, "error", err)
				stats.Skipped = append(stats.Skipped, src.Name)
				continue
			}
			slog.Debug("following linked backup entry", "entry", src.Name, "target", resolved)
			walkRoot = resolved
		}
		stats.Found++

		err = filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := filepath.Rel(walkRoot, p)
			if err != nil {
				return err
			}
			name := path.Join(src.Name, filepath.ToSlash(rel))

			info, err := d.Info()
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() && !info.IsDir() {
				slog.Warn("skipping link or special file", "entry", name)
				stats.Skipped = append(stats.Skipped, name)
				return nil
			}

			hdr, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			hdr.Name = name
			if info.IsDir() {
				hdr.Name += "/"
			}
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}

			f, err := os.Open(p)
			if err != nil {
				return err
			}
			n, err := io.Copy(tw, f)
			_ = f.Close()
			if err != nil {
				return err
			}
			stats.Files++
			stats.Bytes += n
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to archive %s: %w", src.Name, err)
		}
	}

	for _, x := range extras {
		hdr := &tar.Header{
			Name:    x.Name,
			Mode:    0o644,
			Size:    int64(len(x.Data)),
			ModTime: time.Now(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", x.Name, err)
		}
		if _, err := tw.Write(x.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", x.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize gzip: %w", err)
	}
	return stats, nil
}

// safeEntryName validates a tar entry name and returns it as a local path.
func safeEntryName(name string) (string, error) {
	clean := path.Clean(strings.TrimSuffix(name, "/"))
	if name == "" || path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return "", errors.NewWithContext(errors.ErrCodeInvalidRequest, "archive entry has an absolute path",
			map[string]any{"entry": name})
	}
	local := filepath.FromSlash(clean)
	if !filepath.IsLocal(local) {
		return "", errors.NewWithContext(errors.ErrCodeInvalidRequest, "archive entry escapes the target directory",
			map[string]any{"entry": name})
	}
	return local, nil
}

// listTarGz returns the validated entry names of an archive.
func listTarGz(archive string) ([]string, error) {
	f, err := os.Open(archive)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to open archive", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIntegrity, "archive is not gzip compressed", err)
	}
	defer gz.Close()

	var names []string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIntegrity, "archive is corrupt", err)
		}
		if _, err := safeEntryName(hdr.Name); err != nil {
			return nil, err
		}
		switch hdr.Typeflag {
		case tar.TypeSymlink, tar.TypeLink:
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "archive contains links",
				map[string]any{"entry": hdr.Name})
		}
		names = append(names, hdr.Name)
	}
	return names, nil
}

// extractTarGz restores an archive into dest. The archive is validated in a
// first pass so that a rejected archive leaves dest untouched.
func extractTarGz(ctx context.Context, archive, dest string) (int, error) {
	if _, err := listTarGz(archive); err != nil {
		return 0, err
	}

	f, err := os.Open(archive)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, "failed to open archive", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeIntegrity, "archive is not gzip compressed", err)
	}
	defer gz.Close()

	files := 0
	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return files, errors.Wrap(errors.ErrCodeIntegrity, "archive is corrupt", err)
		}

		local, err := safeEntryName(hdr.Name)
		if err != nil {
			return files, err
		}
		target := filepath.Join(dest, local)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, errors.Wrap(errors.ErrCodeInternal, "failed to create directory", err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return files, err
			}
			files++
		default:
			slog.Debug("skipping unsupported entry", "entry", hdr.Name, "type", hdr.Typeflag)
		}
	}
	return files, nil
}

func writeEntry(r io.Reader, target string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create directory", err)
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create file", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return errors.Wrap(errors.ErrCodeInternal, "failed to write file", err)
	}
	return out.Close()
}
