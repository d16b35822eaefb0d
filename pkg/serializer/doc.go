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

// Package serializer renders command results in JSON, YAML or table form and
// loads JSON/YAML documents from disk.
//
// # Formats
//
// JSON:
//   - Machine-parseable, indented two spaces
//   - Used by the watch server responses as well
//
// YAML:
//   - Human-readable, preserves structure
//
// Table:
//   - Values implementing Tabular render as aligned columns
//   - Anything else falls back to YAML
//
// # Usage
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatTable, "")
//	defer w.Close()
//	if err := w.Serialize(ctx, results); err != nil {
//	    return err
//	}
//
// Loading a document:
//
//	cfg, err := serializer.FromFile[config.Config](".rpctl.yaml")
package serializer
