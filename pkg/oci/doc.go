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

// Package oci pushes backup archives to an OCI registry as artifacts.
//
// A backup is stored as a single-layer OCI 1.1 artifact. The layer is the
// gzip-compressed tar archive exactly as written by the backup package, so
// it can be pulled back with any ORAS-compatible client:
//
//	oras pull registry.local/research/backups:backup_20250102_030405
//
// # Usage
//
//	ref, err := oci.ParseReference("oci://registry.local/research/backups")
//	if err != nil {
//		return err
//	}
//	res, err := oci.Push(ctx, oci.PushOptions{
//		File:      "backups/backup_20250102_030405.tar.gz",
//		Reference: ref.WithTag("backup_20250102_030405"),
//	})
//
// # Authentication
//
// Credentials are loaded from the standard Docker configuration
// (~/.docker/config.json) through the ORAS credentials package.
package oci
