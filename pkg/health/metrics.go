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

package health

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	appUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rpctl_app_up",
			Help: "Whether the application reported healthy on the last check (1) or not (0)",
		},
	)

	checksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpctl_health_checks_total",
			Help: "Total number of health checks by result",
		},
		[]string{"result"},
	)

	checkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rpctl_health_check_duration_seconds",
			Help:    "Health check latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	apiConnected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rpctl_api_connected",
			Help: "External API connectivity as reported by the application",
		},
		[]string{"api"},
	)
)
