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

package metrics

import (
	"github.com/NVIDIA/tamarin-batch/pkg/scheduler"
)

// Observer adapts a Registry into a scheduler.Observer: every completion
// updates the completion, cache-hit/miss counters and the duration
// histogram, and every progress tick sets the pending/running gauges.
// Admits are not observed, and the allocated cores/memory gauges are not
// set here.
func (r *Registry) Observer() scheduler.Observer {
	return scheduler.Observer{
		OnComplete: func(res scheduler.UnitResult) {
			r.UnitsCompletedTotal.WithLabelValues(string(res.State)).Inc()
			if res.FromCache {
				r.CacheHitsTotal.Inc()
			} else {
				r.CacheMissesTotal.Inc()
			}
			r.UnitDurationSeconds.Observe(res.Ended.Sub(res.Started).Seconds())
		},
		OnProgress: func(pending, running, completed, total int) {
			r.PendingUnits.Set(float64(pending))
			r.RunningUnits.Set(float64(running))
		},
	}
}
