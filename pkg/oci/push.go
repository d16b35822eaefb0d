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
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/researchplatform/rpctl/pkg/errors"
)

const (
	// ArtifactType identifies research platform backup artifacts.
	ArtifactType = "application/vnd.researchplatform.backup.v1"
	// LayerMediaType is the media type of the archive layer.
	LayerMediaType = ociv1.MediaTypeImageLayerGzip
)

// PushOptions configures a push.
type PushOptions struct {
	// File is the archive to push.
	File string
	// Reference is the destination. Its tag is required.
	Reference *Reference
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
	// Annotations are added to the manifest.
	Annotations map[string]string
}

// PushResult describes a pushed artifact.
type PushResult struct {
	Digest    string `json:"digest" yaml:"digest"`
	Reference string `json:"reference" yaml:"reference"`
	Size      int64  `json:"size" yaml:"size"`
}

// Push uploads opts.File as a single-layer artifact.
func Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	if opts.Reference == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "OCI reference is required")
	}
	if !ValidTag(opts.Reference.Tag) {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "a valid tag is required to push",
			map[string]any{"tag": opts.Reference.Tag})
	}

	absFile, err := filepath.Abs(opts.File)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to resolve archive path", err)
	}
	info, err := os.Stat(absFile)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeNotFound, "archive not found", err,
			map[string]any{"file": absFile})
	}
	if info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "archive must be a file")
	}

	// the file store only reads; its working directory holds nothing else
	fs, err := file.New(filepath.Dir(absFile))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	name := filepath.Base(absFile)
	layerDesc, err := fs.Add(ctx, name, LayerMediaType, absFile)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to add archive to store", err)
	}

	annotations := map[string]string{
		ociv1.AnnotationCreated: info.ModTime().UTC().Format(time.RFC3339),
		ociv1.AnnotationTitle:   name,
	}
	for k, v := range opts.Annotations {
		annotations[k] = v
	}

	packOpts := oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layerDesc},
		ManifestAnnotations: annotations,
	}
	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, packOpts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to pack manifest", err)
	}

	tag := opts.Reference.Tag
	if err := fs.Tag(ctx, manifestDesc, tag); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to tag manifest in local store", err)
	}

	repo, err := remote.NewRepository(opts.Reference.Registry + "/" + opts.Reference.Repository)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = newAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	slog.Info("pushing backup to registry",
		"reference", opts.Reference.ImageReference(),
		"size", info.Size(),
	)

	desc, err := oras.Copy(ctx, fs, tag, repo, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeUnavailable, "failed to push artifact to registry", err,
			map[string]any{"reference": opts.Reference.ImageReference()})
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: opts.Reference.ImageReference(),
		Size:      info.Size(),
	}, nil
}

// newAuthClient returns a registry client using Docker credentials when available.
func newAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credential store unavailable", "error", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
