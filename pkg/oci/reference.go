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
	"fmt"
	"regexp"
	"strings"

	"github.com/distribution/reference"

	"github.com/researchplatform/rpctl/pkg/errors"
)

// URIScheme prefixes registry targets, e.g. "oci://ghcr.io/org/repo:tag".
const URIScheme = "oci://"

// tagPattern is the OCI distribution tag grammar.
var tagPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]{0,127}$`)

// Reference is a parsed registry target.
type Reference struct {
	// Registry is the registry host, e.g. "ghcr.io" or "localhost:5000".
	Registry string
	// Repository is the repository path, e.g. "research/backups".
	Repository string
	// Tag is empty when none was given; callers apply a default.
	Tag string
}

// ParseReference parses "oci://registry/repository[:tag]". The scheme is optional.
func ParseReference(target string) (*Reference, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(target), URIScheme)
	if trimmed == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "empty OCI reference")
	}

	ref, err := reference.ParseNormalizedNamed(trimmed)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}
	if _, ok := ref.(reference.Digested); ok {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "OCI reference must not contain a digest")
	}

	r := &Reference{
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
	}
	if tagged, ok := ref.(reference.Tagged); ok {
		r.Tag = tagged.Tag()
	}
	return r, nil
}

// String returns the reference with the oci:// scheme.
func (r *Reference) String() string {
	return URIScheme + r.ImageReference()
}

// ImageReference returns "registry/repository[:tag]".
func (r *Reference) ImageReference() string {
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy of the reference with tag set.
func (r *Reference) WithTag(tag string) *Reference {
	cp := *r
	cp.Tag = tag
	return &cp
}

// ValidTag reports whether tag is an acceptable OCI tag.
func ValidTag(tag string) bool {
	return tagPattern.MatchString(tag)
}
