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
	"testing"
	"time"

	"github.com/NVIDIA/tamarin-batch/pkg/cache"
	"github.com/NVIDIA/tamarin-batch/pkg/recipe"
	"github.com/NVIDIA/tamarin-batch/pkg/scheduler"
	"github.com/NVIDIA/tamarin-batch/pkg/supervisor"
	"github.com/NVIDIA/tamarin-batch/pkg/unit"
)

func testRecipe() *recipe.Recipe {
	return &recipe.Recipe{
		Config: recipe.Config{
			GlobalMaxCores:    recipe.NewResourceLimit("4"),
			GlobalMaxMemoryGB: recipe.NewResourceLimit("16"),
			DefaultTimeoutS:   3600,
			OutputDirectory:   "out",
		},
		Aliases:   map[string]recipe.AliasEntry{"t1": {ExecutablePath: "/usr/bin/tamarin-prover"}},
		Tasks:     map[string]recipe.Task{"wpa2": {TheoryFile: "wpa2.spthy"}},
		TaskOrder: []string{"wpa2"},
	}
}

func TestAssemble_AggregatesTotals(t *testing.T) {
	r := testRecipe()
	now := time.Unix(1700000000, 0)

	results := []scheduler.UnitResult{
		{
			Unit:    unit.Unit{ID: "wpa2--secrecy--t1", TaskName: "wpa2", Alias: "t1", Lemma: "secrecy", Cores: 2, MemoryGB: 4},
			State:   scheduler.StateCompleted,
			Verdict: cache.Verdict{Succeeded: &cache.SucceededVerdict{LemmaOutcome: cache.Verified}},
			Started: now,
			Ended:   now.Add(2 * time.Second),
			Memory:  &supervisor.MemoryStats{PeakMemoryMB: 100, AvgMemoryMB: 80},
		},
		{
			Unit:      unit.Unit{ID: "wpa2--auth--t1", TaskName: "wpa2", Alias: "t1", Lemma: "auth", Cores: 1, MemoryGB: 1},
			State:     scheduler.StateCacheHit,
			FromCache: true,
			Verdict:   cache.Verdict{Succeeded: &cache.SucceededVerdict{LemmaOutcome: cache.Verified}},
			Started:   now,
			Ended:     now,
		},
		{
			Unit:    unit.Unit{ID: "wpa2--bad--t1", TaskName: "wpa2", Alias: "t1", Lemma: "bad", Cores: 1, MemoryGB: 1},
			State:   scheduler.StateFailed,
			Verdict: cache.Verdict{Failed: &cache.FailedVerdict{ErrorKind: cache.ErrProverError}},
			Started: now,
			Ended:   now.Add(1 * time.Second),
		},
	}

	b := Assemble("demo.json", r, ResolvedConfigInput{GlobalMaxCores: 4, GlobalMaxMemoryGB: 16}, nil, results)

	if b.ExecutionMetadata.TotalTasks != 3 {
		t.Fatalf("expected 3 total tasks, got %d", b.ExecutionMetadata.TotalTasks)
	}
	if b.ExecutionMetadata.TotalSuccesses != 2 {
		t.Fatalf("expected 2 successes (completed + cache hit), got %d", b.ExecutionMetadata.TotalSuccesses)
	}
	if b.ExecutionMetadata.TotalFailures != 1 {
		t.Fatalf("expected 1 failure, got %d", b.ExecutionMetadata.TotalFailures)
	}
	if b.ExecutionMetadata.TotalCacheHit != 1 {
		t.Fatalf("expected 1 cache hit, got %d", b.ExecutionMetadata.TotalCacheHit)
	}
	if b.ExecutionMetadata.MaxMemoryMB != 100 {
		t.Fatalf("expected max memory 100, got %v", b.ExecutionMetadata.MaxMemoryMB)
	}

	task, ok := b.Tasks["wpa2"]
	if !ok {
		t.Fatalf("expected wpa2 task in report")
	}
	if len(task.Subtasks) != 3 {
		t.Fatalf("expected 3 subtasks, got %d", len(task.Subtasks))
	}
	cacheHitSubtask := task.Subtasks["wpa2--auth--t1"]
	if cacheHitSubtask.ExecutionMetadata.Status != string(scheduler.StateCompleted) {
		t.Fatalf("expected cache hit to report status completed, got %q", cacheHitSubtask.ExecutionMetadata.Status)
	}
	if !cacheHitSubtask.ExecutionMetadata.CacheHit {
		t.Fatalf("expected cache_hit true")
	}
}

