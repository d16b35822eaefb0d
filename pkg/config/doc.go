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

// Package config loads rpctl settings.
//
// Settings come from four layers, highest priority first:
//
//  1. command-line flags
//  2. environment variables (NAS_IP, HOST_PORT, RP_*)
//  3. a YAML file (--config, or .rpctl.yaml in the project directory)
//  4. built-in defaults
//
// Layers are merged with mergo: the first non-zero value for a field wins.
//
// The package also reads the application's .env file into an [APIConfig]
// holding the external API credentials used by the connectivity probes.
//
// Usage:
//
//	cfg, err := config.NewBuilder().
//		WithFlags(flagCfg).
//		WithEnv().
//		WithFile(path).
//		Build()
package config
