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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/researchplatform/rpctl/pkg/defaults"
	"github.com/researchplatform/rpctl/pkg/errors"
)

// CleanReport summarises a log cleanup.
type CleanReport struct {
	Dir     string   `json:"dir" yaml:"dir"`
	Removed []string `json:"removed" yaml:"removed"`
	Bytes   int64    `json:"bytes" yaml:"bytes"`
}

// isLogFile matches app.log as well as rotated files like app.log.1.
func isLogFile(name string) bool {
	return strings.HasSuffix(name, ".log") || strings.Contains(name, ".log.")
}

// CleanLogs removes log files from the log directory. With olderThan > 0 only
// files last modified before that age are removed. A missing log directory is
// not an error.
func (w *Workspace) CleanLogs(olderThan time.Duration) (*CleanReport, error) {
	dir := w.LogDir()
	report := &CleanReport{Dir: dir, Removed: []string{}}
	cutoff := time.Now().Add(-olderThan)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !isLogFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if olderThan > 0 && info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		report.Removed = append(report.Removed, rel)
		report.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to clean logs", err,
			map[string]any{"dir": dir})
	}

	slog.Debug("cleaned logs", "dir", dir, "removed", len(report.Removed), "bytes", report.Bytes)
	return report, nil
}

// LogFiles returns the *.log files directly under the log directory, sorted by name.
func (w *Workspace) LogFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(w.LogDir(), "*.log"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to list log files", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// TailLogs writes the last n lines of every log file to out. With follow it
// keeps polling for appended data until ctx is cancelled.
func (w *Workspace) TailLogs(ctx context.Context, out io.Writer, n int, follow bool) error {
	files, err := w.LogFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 && !follow {
		return errors.NewWithContext(errors.ErrCodeNotFound, "no log files found",
			map[string]any{"dir": w.LogDir()})
	}

	offsets := make(map[string]int64, len(files))
	for _, f := range files {
		lines, size, err := lastLines(f, n)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "==> %s <==\n", filepath.Base(f))
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
		offsets[f] = size
	}
	if !follow {
		return nil
	}

	ticker := time.NewTicker(defaults.TailPollInterval)
	defer ticker.Stop()
	last := ""
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		// pick up files created after we started
		current, err := w.LogFiles()
		if err != nil {
			return err
		}
		for _, f := range current {
			data, next, err := readFrom(f, offsets[f])
			if err != nil {
				slog.Debug("tail read failed", "file", f, "error", err)
				continue
			}
			offsets[f] = next
			if len(data) == 0 {
				continue
			}
			if f != last {
				fmt.Fprintf(out, "\n==> %s <==\n", filepath.Base(f))
				last = f
			}
			if _, err := out.Write(data); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "failed to write log output", err)
			}
		}
	}
}

// readFrom returns the bytes appended after offset. A file that shrank was
// truncated or rotated and is read from the start.
func readFrom(path string, offset int64) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, offset, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, offset, err
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return nil, offset, nil
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, offset, err
	}
	return data, offset + int64(len(data)), nil
}

const tailChunk = 4096

// lastLines returns up to n trailing lines of path and the file size.
func lastLines(path string, n int) ([]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeInternal, "failed to open log file", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeInternal, "failed to stat log file", err)
	}
	size := info.Size()
	if n <= 0 || size == 0 {
		return nil, size, nil
	}

	// read backwards until enough newlines are buffered
	var buf []byte
	pos := size
	for pos > 0 && bytes.Count(buf, []byte{'\n'}) <= n {
		step := int64(tailChunk)
		if pos < step {
			step = pos
		}
		pos -= step
		chunk := make([]byte, step)
		if _, err := f.ReadAt(chunk, pos); err != nil && err != io.EOF {
			return nil, 0, errors.Wrap(errors.ErrCodeInternal, "failed to read log file", err)
		}
		buf = append(chunk, buf...)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(buf))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if pos > 0 && len(lines) > 0 {
		// first line is likely partial
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, size, nil
}
