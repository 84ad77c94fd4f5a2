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

// Package scheduler implements the Resource Accountant and the
// event-driven Scheduler coordinator.
//
// Accountant tracks allocated cores/memory against the global ceilings and
// decides, per scheduling policy (FIFO/SJF/LJF), which pending units may
// start now. Coordinator owns the Pending → Running → terminal state
// machine for every unit, admitting units via the Accountant, running them
// via pkg/supervisor, and classifying completions via pkg/parser — one
// goroutine per running unit, joined with a sync.WaitGroup.
package scheduler
