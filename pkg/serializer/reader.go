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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FormatFromPath infers the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		slog.Warn("unrecognized file extension, assuming json", "path", path)
		return FormatJSON
	}
}

// Decode reads one JSON or YAML document from r into v. Table output is
// write-only and is rejected.
func Decode(format Format, r io.Reader, v any) error {
	switch format {
	case FormatJSON:
		return json.NewDecoder(r).Decode(v)
	case FormatYAML:
		return yaml.NewDecoder(r).Decode(v)
	case FormatTable:
		return fmt.Errorf("table format cannot be decoded")
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// FromFile loads a JSON or YAML document into a new T, picking the decoder
// from the file extension.
func FromFile[T any](path string) (*T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	format := FormatFromPath(path)
	slog.Debug("loading document", "path", path, "format", format)

	var out T
	if err := Decode(format, f, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %q as %s: %w", path, format, err)
	}
	return &out, nil
}
