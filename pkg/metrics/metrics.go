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

// Package metrics exposes the scheduler's live state as Prometheus
// metrics, wired through promauto exactly as the teacher's collectors do.
// Registration happens once per process via NewRegistry; the run command
// serves the underlying prometheus.Registry through a promhttp handler
// behind an optional --metrics-addr flag.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every gauge/counter/histogram the scheduler updates
// over the lifetime of one batch run.
type Registry struct {
	AllocatedCores    prometheus.Gauge
	AllocatedMemoryGB prometheus.Gauge
	PendingUnits      prometheus.Gauge
	RunningUnits      prometheus.Gauge

	UnitsCompletedTotal *prometheus.CounterVec
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter

	UnitDurationSeconds prometheus.Histogram
}

// NewRegistry constructs and registers every metric against reg. Passing
// prometheus.NewRegistry() (rather than the global DefaultRegisterer) keeps
// a batch run's metrics isolated and safe to construct more than once in
// tests.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		AllocatedCores: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tamarin_batch",
			Name:      "allocated_cores",
			Help:      "Cores currently allocated to running units.",
		}),
		AllocatedMemoryGB: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tamarin_batch",
			Name:      "allocated_memory_gb",
			Help:      "Memory (GB) currently allocated to running units.",
		}),
		PendingUnits: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tamarin_batch",
			Name:      "pending_units",
			Help:      "Units awaiting admission.",
		}),
		RunningUnits: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tamarin_batch",
			Name:      "running_units",
			Help:      "Units currently executing.",
		}),
		UnitsCompletedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tamarin_batch",
			Name:      "units_completed_total",
			Help:      "Units reaching a terminal state, labeled by that state.",
		}, []string{"state"}),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tamarin_batch",
			Name:      "cache_hits_total",
			Help:      "Units whose verdict was served from the result cache.",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tamarin_batch",
			Name:      "cache_misses_total",
			Help:      "Units that required a fresh prover invocation.",
		}),
		UnitDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tamarin_batch",
			Name:      "unit_duration_seconds",
			Help:      "Wall-clock duration of a unit's execution, from admission to terminal state.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}),
	}
}
