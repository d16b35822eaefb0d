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

// Package cli implements rpctl, the operations command line of the
// Multi-API Research Platform.
//
// # Overview
//
// The platform is a Compose project with an app service (the Flask
// application on port 5000, GET /health) and a redis service. rpctl drives
// the container engine and the Compose orchestrator through their CLIs and
// does the filesystem, HTTP, archive and Redis work itself.
//
// # Commands
//
// Lifecycle:
//
//	rpctl setup          create .env and the directories the image expects
//	rpctl build          build without cache (build-fast uses the cache)
//	rpctl up [--wait]    start in the background
//	rpctl down|restart|stop|start
//	rpctl dev            attached, FLASK_ENV=development FLASK_DEBUG=true
//	rpctl quick-start    setup, build, up and wait for /health
//	rpctl rebuild        down, build without cache, up
//	rpctl refresh        restart the app service and wait for /health
//
// Monitoring:
//
//	rpctl status|stats|health
//	rpctl logs|logs-all|logs-redis|tail-logs
//	rpctl test-apis [--strict]
//	rpctl watch          /health, /ready, /metrics and /v1/status on :9090
//
// Data:
//
//	rpctl backup [--keep N]
//	rpctl restore [archive]
//	rpctl backup-list
//	rpctl backup-push --to s3|oci [archive]
//	rpctl export-data
//	rpctl clean-logs [--older-than 168h]
//
// Redis, debugging and maintenance:
//
//	rpctl redis-info|redis-monitor|redis-flush [--force]
//	rpctl shell|shell-redis|python-shell
//	rpctl debug-env|debug-network|debug-nfs
//	rpctl update|clean|clean-volumes|prune
//	rpctl validate [--fail-on-error]
//	rpctl version|info
//
// # Global Flags
//
//	--config, -c        config file (default .rpctl.yaml in the project directory)
//	--project-dir, -C   project directory (default ".")
//	--compose-file, -f  compose file (default docker-compose.yml)
//	--nas-ip            NAS address (default 192.168.0.134)
//	--port, -p          host port of the app (default 5000)
//	--log-level         debug, info, warn, error
//	--format, -t        json, yaml, table (default table)
//	--output, -o        output file (default stdout)
//
// # Environment Variables
//
//	NAS_IP, HOST_PORT      same as --nas-ip and --port
//	LOG_LEVEL              same as --log-level
//	RP_*                   every config file field, e.g. RP_REDIS_ADDR,
//	                       RP_BACKUP_KEEP, RP_BACKUP_S3_ACCESS_KEY
//
// # Failure Handling
//
// Probes of things outside rpctl's control (the health endpoint, external
// APIs, Docker networks) print a coloured warning and let the command finish.
// restore fails when no backup exists. Any returned error exits with status 1.
package cli
