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

import "time"

// Reason classifies why a run ended.
type Reason string

const (
	ReasonExited      Reason = "exited"
	ReasonTimeout     Reason = "timeout"
	ReasonMemoryLimit Reason = "memory_limit"
	ReasonCancelled   Reason = "cancelled"
	ReasonSpawnError  Reason = "spawn_error"
)

// Synthetic exit code sentinels for downstream classification (§4.E).
const (
	ExitCodeTimeout     = -1
	ExitCodeMemoryLimit = -2
)

// Result is the outcome of one supervised run.
type Result struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	Memory    *MemoryStats
	Reason    Reason
}
