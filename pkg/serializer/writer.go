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

package serializer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format selects the output encoding.
type Format string

const (
	// FormatJSON is indented JSON.
	FormatJSON Format = "json"
	// FormatYAML is two-space YAML.
	FormatYAML Format = "yaml"
	// FormatTable is an aligned column layout for Tabular values.
	FormatTable Format = "table"
)

type encodeFunc func(io.Writer, any) error

var encoders = map[Format]encodeFunc{
	FormatJSON:  encodeJSON,
	FormatYAML:  encodeYAML,
	FormatTable: encodeTable,
}

// IsUnknown reports whether f is not one of the supported formats.
func (f Format) IsUnknown() bool {
	_, ok := encoders[f]
	return !ok
}

// SupportedFormats lists the accepted --format values.
func SupportedFormats() []string {
	return []string{string(FormatJSON), string(FormatYAML), string(FormatTable)}
}

// Writer serializes command results to an io.Writer.
type Writer struct {
	format Format
	out    io.Writer
	file   *os.File
}

// NewWriter returns a Writer for out. A nil out means stdout and an unknown
// format is replaced with JSON.
func NewWriter(format Format, out io.Writer) *Writer {
	if out == nil {
		out = os.Stdout
	}
	if format.IsUnknown() {
		slog.Warn("unknown output format, using json", "format", format)
		format = FormatJSON
	}
	return &Writer{format: format, out: out}
}

// NewStdoutWriter returns a Writer on stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, os.Stdout)
}

// NewFileWriterOrStdout writes to path, or to stdout when path is blank or
// cannot be created.
func NewFileWriterOrStdout(format Format, path string) *Writer {
	path = strings.TrimSpace(path)
	if path == "" {
		return NewStdoutWriter(format)
	}
	f, err := os.Create(path)
	if err != nil {
		slog.Error("cannot create output file, using stdout", "path", path, "error", err)
		return NewStdoutWriter(format)
	}
	w := NewWriter(format, f)
	w.file = f
	return w
}

// Close closes the output file opened by NewFileWriterOrStdout.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}

// Serialize encodes v in the writer's format.
func (w *Writer) Serialize(_ context.Context, v any) error {
	enc, ok := encoders[w.format]
	if !ok {
		return fmt.Errorf("unsupported format: %s", w.format)
	}
	if err := enc(w.out, v); err != nil {
		return fmt.Errorf("failed to write %s: %w", w.format, err)
	}
	return nil
}

func encodeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// encodeTable prints Tabular values as aligned columns under an underlined
// header. Anything else (upload receipts, push descriptors) has no natural
// row shape and is printed as YAML.
func encodeTable(out io.Writer, v any) error {
	t, ok := v.(Tabular)
	if !ok {
		return encodeYAML(out, v)
	}

	header := t.TableHeader()
	rule := make([]string, len(header))
	for i, h := range header {
		rule[i] = strings.Repeat("-", len(h))
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, cells := range append([][]string{header, rule}, t.TableRows()...) {
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
