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

package supervisor

import (
	"github.com/prometheus/procfs"
)

// MemoryStats summarizes a run's RSS samples: the peak instantaneous value
// and the running average across all 1Hz samples taken during execution.
type MemoryStats struct {
	PeakMemoryMB float64
	AvgMemoryMB  float64
}

// RSSSampler reports the combined RSS, in MB, of pid and all of its
// descendants at the instant of the call.
type RSSSampler interface {
	SampleRSSMB(pid int) (float64, error)
}

// procfsSampler is the real, Linux /proc-backed RSSSampler.
type procfsSampler struct{}

// SampleRSSMB walks the full process table once, sums the RSS of pid and
// every transitive child, and reports the total in megabytes.
func (procfsSampler) SampleRSSMB(pid int) (float64, error) {
	all, err := procfs.AllProcs()
	if err != nil {
		return 0, err
	}

	childrenOf := make(map[int][]int)
	rssOf := make(map[int]uint64)
	for _, p := range all {
		stat, err := p.Stat()
		if err != nil {
			continue
		}
		childrenOf[stat.PPID] = append(childrenOf[stat.PPID], p.PID)
		rssOf[p.PID] = uint64(stat.ResidentMemory())
	}

	var total uint64
	queue := []int{pid}
	visited := map[int]bool{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		total += rssOf[cur]
		queue = append(queue, childrenOf[cur]...)
	}

	return float64(total) / (1024 * 1024), nil
}

// runningAverage implements the same incremental-mean update as the
// original Python sampler: avg += (sample - avg) / n.
type runningAverage struct {
	peak  float64
	avg   float64
	count int
}

func (r *runningAverage) add(sampleMB float64) {
	r.count++
	if sampleMB > r.peak {
		r.peak = sampleMB
	}
	r.avg += (sampleMB - r.avg) / float64(r.count)
}

func (r *runningAverage) stats() *MemoryStats {
	if r.count == 0 {
		return nil
	}
	return &MemoryStats{PeakMemoryMB: r.peak, AvgMemoryMB: r.avg}
}
