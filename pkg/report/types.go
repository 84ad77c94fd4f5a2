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

import "github.com/NVIDIA/tamarin-batch/pkg/cache"

// ResolvedConfig elaborates the recipe's "max"/"N%" ceilings to the
// absolute integers actually enforced during the run (§4.H).
type ResolvedConfig struct {
	GlobalMaxCores    int    `json:"global_max_cores"`
	GlobalMaxMemoryGB int    `json:"global_max_memory_gb"`
	DefaultTimeoutS   int    `json:"default_timeout_s"`
	OutputDirectory   string `json:"output_directory"`
}

// ResolvedAlias augments a recipe alias with its best-effort probed
// version. IntegrityOK is deliberately not part of the report (§4.H).
type ResolvedAlias struct {
	ExecutablePath  string  `json:"executable_path"`
	ReportedVersion *string `json:"reported_version,omitempty"`
}

// ExecutionMetadata is the per-unit record of how a unit ran.
type ExecutionMetadata struct {
	Command                string   `json:"command"`
	Status                 string   `json:"status"`
	CacheHit               bool     `json:"cache_hit"`
	ExecStart               string   `json:"exec_start,omitempty"`
	ExecEnd                 string   `json:"exec_end,omitempty"`
	ExecDurationMonotonicS   float64  `json:"exec_duration_monotonic_s"`
	AvgMemoryMB             *float64 `json:"avg_memory_mb,omitempty"`
	PeakMemoryMB            *float64 `json:"peak_memory_mb,omitempty"`
}

// UnitConfig is the subset of a unit's resolved resource triple the report
// surfaces per subtask.
type UnitConfig struct {
	Alias     string   `json:"alias"`
	Lemma     string   `json:"lemma"`
	Options   []string `json:"options,omitempty"`
	Cores     int      `json:"cores"`
	MemoryGB  int      `json:"memory_gb"`
	TimeoutS  int      `json:"timeout_s"`
	OutputFile string  `json:"output_file"`
}

// Subtask is one unit's full report entry.
type Subtask struct {
	Config            UnitConfig         `json:"task_config"`
	ExecutionMetadata ExecutionMetadata  `json:"execution_metadata"`
	Verdict           *cache.Verdict     `json:"verdict,omitempty"`
}

// TaskReport groups every subtask that descended from one original recipe
// task.
type TaskReport struct {
	TheoryFile string              `json:"theory_file"`
	Subtasks   map[string]Subtask `json:"subtasks"`
}

// AggregateMetadata summarizes the whole batch (§4.H).
type AggregateMetadata struct {
	TotalTasks     int     `json:"total_tasks"`
	TotalSuccesses int     `json:"total_successes"`
	TotalFailures  int     `json:"total_failures"`
	TotalCacheHit  int     `json:"total_cache_hit"`
	TotalRuntimeS  float64 `json:"total_runtime_s"`
	TotalMemoryMB  float64 `json:"total_memory_mb"`
	MaxRuntimeS    float64 `json:"max_runtime_s"`
	MaxMemoryMB    float64 `json:"max_memory_mb"`
}

// Batch is the report root, serialized verbatim to execution_report.json
// (§3 "Batch", §6.4).
type Batch struct {
	RecipeName        string                 `json:"recipe_name"`
	Config            ResolvedConfig         `json:"config"`
	Aliases           map[string]ResolvedAlias `json:"aliases"`
	ExecutionMetadata AggregateMetadata      `json:"execution_metadata"`
	Tasks             map[string]TaskReport  `json:"tasks"`
}
