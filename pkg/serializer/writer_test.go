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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type testConfig struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

type testRows []testConfig

func (r testRows) TableHeader() []string { return []string{"NAME", "VALUE"} }

func (r testRows) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, c := range r {
		rows = append(rows, []string{c.Name, strings.Repeat("*", c.Value)})
	}
	return rows
}

func TestWriter_SerializeJSON(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatJSON, &buf)

	data := []testConfig{
		{Name: "app", Value: 5000},
		{Name: "redis", Value: 6379},
	}

	if err := writer.Serialize(context.Background(), data); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var result []testConfig
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
	if len(result) != 2 || result[0].Name != "app" || result[1].Value != 6379 {
		t.Errorf("Unexpected data: %+v", result)
	}
}

func TestWriter_SerializeYAML(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatYAML, &buf)

	data := testConfig{Name: "app", Value: 5000}
	if err := writer.Serialize(context.Background(), data); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var result testConfig
	if err := yaml.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal YAML: %v", err)
	}
	if result != data {
		t.Errorf("expected %+v, got %+v", data, result)
	}
}

func TestWriter_SerializeTableNonTabularUsesYAML(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatTable, &buf)

	data := testConfig{Name: "backup", Value: 2}
	if err := writer.Serialize(context.Background(), data); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var result testConfig
	if err := yaml.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("expected YAML, got %q: %v", buf.String(), err)
	}
	if result != data {
		t.Errorf("expected %+v, got %+v", data, result)
	}
}

func TestWriter_SerializeTableTabular(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatTable, &buf)

	data := testRows{{Name: "claude", Value: 1}, {Name: "pubmed", Value: 3}}
	if err := writer.Serialize(context.Background(), data); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, underline and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "NAME") || !strings.Contains(lines[1], "----") {
		t.Errorf("unexpected header: %q / %q", lines[0], lines[1])
	}
	if !strings.Contains(lines[3], "pubmed") || !strings.Contains(lines[3], "***") {
		t.Errorf("unexpected row: %q", lines[3])
	}
}

func TestWriter_SerializeTableNoRows(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatTable, &buf)

	if err := writer.Serialize(context.Background(), testRows{}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "NAME") {
		t.Errorf("expected header and underline only, got %q", buf.String())
	}
}

func TestWriter_UnknownFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter("xml", &buf)

	if err := writer.Serialize(context.Background(), testConfig{Name: "x", Value: 1}); err != nil {
		t.Fatalf("Serialize should not fail with unknown format: %v", err)
	}

	var result testConfig
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}

func TestFormat_IsUnknown(t *testing.T) {
	for _, f := range SupportedFormats() {
		if Format(f).IsUnknown() {
			t.Errorf("format %q should be known", f)
		}
	}
	for _, f := range []string{"", "xml", "csv", "JSON"} {
		if !Format(f).IsUnknown() {
			t.Errorf("format %q should be unknown", f)
		}
	}
}

func TestNewFileWriterOrStdout_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	w := NewFileWriterOrStdout(FormatJSON, path)
	if err := w.Serialize(context.Background(), testConfig{Name: "file", Value: 7}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(data), `"file"`) {
		t.Errorf("unexpected file content: %s", data)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"config.json":  FormatJSON,
		"config.YAML":  FormatYAML,
		"config.yml":   FormatYAML,
		".rpctl.yaml":  FormatYAML,
		"config.toml":  FormatJSON,
		"no-extension": FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte("name: nas\nvalue: 134\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := FromFile[testConfig](yamlPath)
	if err != nil {
		t.Fatalf("FromFile yaml: %v", err)
	}
	if got.Name != "nas" || got.Value != 134 {
		t.Errorf("unexpected yaml result: %+v", got)
	}

	jsonPath := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(jsonPath, []byte(`{"name":"port","value":5000}`), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = FromFile[testConfig](jsonPath)
	if err != nil {
		t.Fatalf("FromFile json: %v", err)
	}
	if got.Value != 5000 {
		t.Errorf("unexpected json result: %+v", got)
	}

	if _, err := FromFile[testConfig](filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecode_RejectsTable(t *testing.T) {
	var v testConfig
	if err := Decode(FormatTable, strings.NewReader("{}"), &v); err == nil {
		t.Error("expected error for table format")
	}
	if err := Decode("xml", strings.NewReader("{}"), &v); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusAccepted, testConfig{Name: "ok", Value: 1})

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected status %d, got %d", http.StatusAccepted, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	rec = httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for unencodable value, got %d", rec.Code)
	}
}
