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

// Package apis smoke-tests the external services the application depends
// on: Claude (Anthropic Messages API), PubMed (NCBI E-utilities) and Asana.
//
// Each [Prober] makes the smallest authenticated request the service
// accepts. Missing or placeholder credentials are reported as not
// configured without touching the network, and one failing probe never
// prevents the others from running.
package apis
