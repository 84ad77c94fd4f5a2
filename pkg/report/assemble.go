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

package report

import (
	"strings"
	"time"

	"github.com/NVIDIA/tamarin-batch/pkg/recipe"
	"github.com/NVIDIA/tamarin-batch/pkg/scheduler"
)

// ResolvedConfigInput carries the already-resolved (non-"max"/"N%")
// integer ceilings the batch actually ran under; resolving a
// recipe.ResourceLimit against host capacity is the caller's job (it
// happens once, before scheduling starts).
type ResolvedConfigInput struct {
	GlobalMaxCores    int
	GlobalMaxMemoryGB int
}

// Assemble builds the Batch report root from a drained scheduler run.
// recipeName is the recipe file's base name (not a recipe field); r is the
// loaded recipe (for task→theory-file grouping and the alias table);
// aliasVersions carries each alias's probed prover version, if any;
// results is every scheduler.UnitResult produced by Coordinator.Run.
func Assemble(recipeName string, r *recipe.Recipe, resolved ResolvedConfigInput, aliasVersions map[string]scheduler.AliasVersion, results []scheduler.UnitResult) Batch {
	b := Batch{
		RecipeName: recipeName,
		Config: ResolvedConfig{
			GlobalMaxCores:    resolved.GlobalMaxCores,
			GlobalMaxMemoryGB: resolved.GlobalMaxMemoryGB,
			DefaultTimeoutS:   r.Config.DefaultTimeoutS,
			OutputDirectory:   r.Config.OutputDirectory,
		},
		Aliases: make(map[string]ResolvedAlias, len(r.Aliases)),
		Tasks:   make(map[string]TaskReport),
	}

	for name, entry := range r.Aliases {
		ra := ResolvedAlias{ExecutablePath: entry.ExecutablePath}
		if av, ok := aliasVersions[name]; ok && av.Known {
			v := av.Version.String()
			ra.ReportedVersion = &v
		}
		b.Aliases[name] = ra
	}

	for taskName, task := range r.Tasks {
		b.Tasks[taskName] = TaskReport{TheoryFile: task.TheoryFile, Subtasks: make(map[string]Subtask)}
	}

	var agg AggregateMetadata
	for _, res := range results {
		taskReport, ok := b.Tasks[res.Unit.TaskName]
		if !ok {
			taskReport = TaskReport{TheoryFile: res.Unit.TheoryFile, Subtasks: make(map[string]Subtask)}
		}
		taskReport.Subtasks[res.Unit.ID] = subtaskFor(res)
		b.Tasks[res.Unit.TaskName] = taskReport

		agg.TotalTasks++
		if res.State == scheduler.StateCompleted || res.State == scheduler.StateCacheHit {
			agg.TotalSuccesses++
		} else {
			agg.TotalFailures++
		}
		if res.FromCache {
			agg.TotalCacheHit++
		}

		durationS := res.Ended.Sub(res.Started).Seconds()
		agg.TotalRuntimeS += durationS
		if durationS > agg.MaxRuntimeS {
			agg.MaxRuntimeS = durationS
		}
		if res.Memory != nil {
			agg.TotalMemoryMB += res.Memory.PeakMemoryMB
			if res.Memory.PeakMemoryMB > agg.MaxMemoryMB {
				agg.MaxMemoryMB = res.Memory.PeakMemoryMB
			}
		}
	}
	b.ExecutionMetadata = agg

	return b
}

func subtaskFor(res scheduler.UnitResult) Subtask {
	u := res.Unit

	status := string(res.State)
	if res.State == scheduler.StateCacheHit {
		status = string(scheduler.StateCompleted)
	}

	em := ExecutionMetadata{
		Command:              strings.Join(res.Command, " "),
		Status:                status,
		CacheHit:              res.FromCache,
		ExecDurationMonotonicS: res.Ended.Sub(res.Started).Seconds(),
	}
	if !res.Started.IsZero() {
		em.ExecStart = res.Started.Format(time.RFC3339)
	}
	if !res.Ended.IsZero() {
		em.ExecEnd = res.Ended.Format(time.RFC3339)
	}
	if res.Memory != nil {
		avg, peak := res.Memory.AvgMemoryMB, res.Memory.PeakMemoryMB
		em.AvgMemoryMB = &avg
		em.PeakMemoryMB = &peak
	}

	v := res.Verdict

	return Subtask{
		Config: UnitConfig{
			Alias:      u.Alias,
			Lemma:      u.Lemma,
			Options:    u.Options,
			Cores:      u.Cores,
			MemoryGB:   u.MemoryGB,
			TimeoutS:   u.TimeoutS,
			OutputFile: u.OutputFile,
		},
		ExecutionMetadata: em,
		Verdict:           &v,
	}
}
