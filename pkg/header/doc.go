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

// Package header provides the common envelope for documents rpctl writes.
//
// Structured outputs that are meant to be archived or compared over time
// (validation results, platform info, environment dumps) carry a Header so
// consumers can tell what they are looking at:
//
//	apiVersion: rpctl.researchplatform.io/v1
//	kind: ValidationResult
//	metadata:
//	  timestamp: "2025-12-30T10:30:00Z"
//	  version: v1.4.0
//
// Embed Header inline and call Init when building the document.
package header
