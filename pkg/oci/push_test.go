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

package oci

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/researchplatform/rpctl/pkg/errors"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantReg  string
		wantRepo string
		wantTag  string
		wantErr  bool
	}{
		{
			name:     "with tag",
			input:    "oci://ghcr.io/research/backups:nightly",
			wantReg:  "ghcr.io",
			wantRepo: "research/backups",
			wantTag:  "nightly",
		},
		{
			name:     "without tag",
			input:    "oci://ghcr.io/research/backups",
			wantReg:  "ghcr.io",
			wantRepo: "research/backups",
		},
		{
			name:     "registry with port",
			input:    "oci://192.168.0.134:5000/rp/backups:v1",
			wantReg:  "192.168.0.134:5000",
			wantRepo: "rp/backups",
			wantTag:  "v1",
		},
		{
			name:     "scheme optional",
			input:    "localhost:5000/rp/backups",
			wantReg:  "localhost:5000",
			wantRepo: "rp/backups",
		},
		{
			name:    "empty",
			input:   "oci://",
			wantErr: true,
		},
		{
			name:    "uppercase repository",
			input:   "oci://ghcr.io/Research/Backups:v1",
			wantErr: true,
		},
		{
			name:    "digest",
			input:   "oci://ghcr.io/rp/backups@sha256:0000000000000000000000000000000000000000000000000000000000000000",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseReference(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReference() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ref.Registry != tt.wantReg {
				t.Errorf("Registry = %v, want %v", ref.Registry, tt.wantReg)
			}
			if ref.Repository != tt.wantRepo {
				t.Errorf("Repository = %v, want %v", ref.Repository, tt.wantRepo)
			}
			if ref.Tag != tt.wantTag {
				t.Errorf("Tag = %v, want %v", ref.Tag, tt.wantTag)
			}
		})
	}
}

func TestReference_Strings(t *testing.T) {
	ref := &Reference{Registry: "ghcr.io", Repository: "rp/backups"}
	if got := ref.String(); got != "oci://ghcr.io/rp/backups" {
		t.Errorf("String() = %s", got)
	}

	tagged := ref.WithTag("backup_20250102_030405")
	if got := tagged.ImageReference(); got != "ghcr.io/rp/backups:backup_20250102_030405" {
		t.Errorf("ImageReference() = %s", got)
	}
	if ref.Tag != "" {
		t.Error("WithTag must not modify the receiver")
	}
}

func TestValidTag(t *testing.T) {
	tests := map[string]bool{
		"latest":                 true,
		"backup_20250102_030405": true,
		"v1.0.0":                 true,
		"":                       false,
		"-leading-dash":          false,
		"has space":              false,
		"has/slash":              false,
	}
	for tag, want := range tests {
		if got := ValidTag(tag); got != want {
			t.Errorf("ValidTag(%q) = %v, want %v", tag, got, want)
		}
	}
}

func TestPush_Validation(t *testing.T) {
	ctx := context.Background()
	ref := &Reference{Registry: "localhost:5000", Repository: "rp/backups"}

	if _, err := Push(ctx, PushOptions{File: "x.tar.gz"}); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("missing reference: got %v", err)
	}
	if _, err := Push(ctx, PushOptions{File: "x.tar.gz", Reference: ref}); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("missing tag: got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.tar.gz")
	if _, err := Push(ctx, PushOptions{File: missing, Reference: ref.WithTag("v1")}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file: got %v", err)
	}

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := Push(ctx, PushOptions{File: filepath.Join(dir, "sub"), Reference: ref.WithTag("v1")}); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("directory: got %v", err)
	}
}
