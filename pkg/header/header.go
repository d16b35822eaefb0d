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

package header

import (
	"time"
)

// APIVersion is the version stamped on every rpctl document.
const APIVersion = "rpctl.researchplatform.io/v1"

// Kind identifies the document type.
type Kind string

const (
	KindValidationResult Kind = "ValidationResult"
	KindPlatformInfo     Kind = "PlatformInfo"
	KindEnvironment      Kind = "Environment"
	KindStatusReport     Kind = "StatusReport"
)

func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindValidationResult, KindPlatformInfo, KindEnvironment, KindStatusReport:
		return true
	default:
		return false
	}
}

// Header is embedded inline in rpctl documents.
type Header struct {
	Kind       Kind              `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string            `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Init stamps kind, API version, the current UTC time and the tool version.
func (h *Header) Init(kind Kind, toolVersion string) {
	h.Kind = kind
	h.APIVersion = APIVersion
	h.Metadata = map[string]string{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if toolVersion != "" {
		h.Metadata["version"] = toolVersion
	}
}

// Set adds a metadata entry.
func (h *Header) Set(key, value string) {
	if h.Metadata == nil {
		h.Metadata = make(map[string]string)
	}
	h.Metadata[key] = value
}
