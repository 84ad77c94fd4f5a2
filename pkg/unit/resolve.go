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

package unit

import "github.com/NVIDIA/tamarin-batch/pkg/recipe"

// Built-in resource defaults (§3) applied before any task/lemma override.
const (
	DefaultCores    = 4
	DefaultMemoryGB = 16
)

// resolved is the (cores, memory, timeout) triple after one level of
// inheritance has been applied.
type resolved struct {
	cores    int
	memoryGB int
	timeout  int
}

// resolveTaskLevel applies built-in defaults ← task resources, then caps the
// (cores, memory) pair at the global ceiling. It returns the resolved triple
// and whether cores/memory were capped.
func resolveTaskLevel(taskOverride *recipe.ResourceOverride, defaultTimeoutS, globalMaxCores, globalMaxMemoryGB int) (resolved, bool, bool) {
	r := resolved{cores: DefaultCores, memoryGB: DefaultMemoryGB, timeout: defaultTimeoutS}
	if taskOverride != nil {
		if taskOverride.Cores != nil {
			r.cores = *taskOverride.Cores
		}
		if taskOverride.MemoryGB != nil {
			r.memoryGB = *taskOverride.MemoryGB
		}
		if taskOverride.TimeoutS != nil {
			r.timeout = *taskOverride.TimeoutS
		}
	}

	coresCapped := false
	if r.cores > globalMaxCores {
		r.cores = globalMaxCores
		coresCapped = true
	}
	memCapped := false
	if r.memoryGB > globalMaxMemoryGB {
		r.memoryGB = globalMaxMemoryGB
		memCapped = true
	}

	return r, coresCapped, memCapped
}

// resolveLemmaLevel applies a lemma's resource override on top of the
// already-capped task-level triple. Lemma-level values are NOT re-capped:
// an explicit per-lemma escalation above the global ceiling is permitted
// (§3). The capped flags are cleared for any field the lemma overrides,
// since that field's final value is the explicit escalation, not the cap.
func resolveLemmaLevel(base resolved, coresCapped, memCapped bool, lemmaOverride *recipe.ResourceOverride) (resolved, bool, bool) {
	r := base
	if lemmaOverride == nil {
		return r, coresCapped, memCapped
	}
	if lemmaOverride.Cores != nil {
		r.cores = *lemmaOverride.Cores
		coresCapped = false
	}
	if lemmaOverride.MemoryGB != nil {
		r.memoryGB = *lemmaOverride.MemoryGB
		memCapped = false
	}
	if lemmaOverride.TimeoutS != nil {
		r.timeout = *lemmaOverride.TimeoutS
	}
	return r, coresCapped, memCapped
}

// replaceStrings implements the "present lemma value fully replaces task
// value" rule for aliases/options/preprocessor_flags (§3): a nil override
// means inherit, any non-nil override (including an explicit empty slice)
// means replace.
func replaceStrings(task []string, lemmaOverride *[]string) []string {
	if lemmaOverride == nil {
		return task
	}
	return *lemmaOverride
}
