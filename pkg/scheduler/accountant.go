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

package scheduler

import (
	"log/slog"
	"sync"

	"github.com/NVIDIA/tamarin-batch/pkg/unit"
)

// Accountant tracks allocated cores/memory against the global ceilings and
// decides which pending units may start. All operations are safe for
// concurrent use.
type Accountant struct {
	mu sync.Mutex

	maxCores    int
	maxMemoryGB int

	allocatedCores    int
	allocatedMemoryGB int
	admitted          map[string]bool
}

// NewAccountant returns an Accountant with zero allocation against the
// given global ceilings.
func NewAccountant(maxCores, maxMemoryGB int) *Accountant {
	return &Accountant{
		maxCores:    maxCores,
		maxMemoryGB: maxMemoryGB,
		admitted:    make(map[string]bool),
	}
}

// CanAdmit reports whether u's resource demand currently fits the
// available (unallocated) capacity.
func (a *Accountant) CanAdmit(u unit.Unit) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.canAdmitLocked(u)
}

// Allocated reports the currently allocated cores and memory, for metrics
// and progress reporting.
func (a *Accountant) Allocated() (cores, memoryGB int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocatedCores, a.allocatedMemoryGB
}

func (a *Accountant) canAdmitLocked(u unit.Unit) bool {
	return u.Cores <= a.maxCores-a.allocatedCores && u.MemoryGB <= a.maxMemoryGB-a.allocatedMemoryGB
}

// Admit atomically admits u if it is not already admitted and CanAdmit
// holds, incrementing the allocation counters. It returns false (with no
// side effect) otherwise.
func (a *Accountant) Admit(u unit.Unit) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.admitted[u.ID] {
		return false
	}
	if !a.canAdmitLocked(u) {
		return false
	}

	a.allocatedCores += u.Cores
	a.allocatedMemoryGB += u.MemoryGB
	a.admitted[u.ID] = true
	return true
}

// Release returns u's resources to the pool. It is a no-op (logged as a
// warning) if u was not admitted; the counters never go negative.
func (a *Accountant) Release(u unit.Unit) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.admitted[u.ID] {
		slog.Warn("release called for a unit that was never admitted", "unit_id", u.ID)
		return
	}

	a.allocatedCores -= u.Cores
	if a.allocatedCores < 0 {
		a.allocatedCores = 0
	}
	a.allocatedMemoryGB -= u.MemoryGB
	if a.allocatedMemoryGB < 0 {
		a.allocatedMemoryGB = 0
	}
	delete(a.admitted, u.ID)
}

// NextAdmissible reorders a working copy of pending by policy, then walks
// that order greedily, selecting every unit whose demand still fits the
// remaining available capacity and skipping (but continuing past) any unit
// that does not. It does not commit any
// allocation; callers must still call Admit for each returned unit.
func (a *Accountant) NextAdmissible(pending []unit.Unit, policy Policy) []unit.Unit {
	ordered := policy.Order(pending)

	a.mu.Lock()
	availableCores := a.maxCores - a.allocatedCores
	availableMemoryGB := a.maxMemoryGB - a.allocatedMemoryGB
	a.mu.Unlock()

	var admissible []unit.Unit
	for _, u := range ordered {
		if u.Cores <= availableCores && u.MemoryGB <= availableMemoryGB {
			admissible = append(admissible, u)
			availableCores -= u.Cores
			availableMemoryGB -= u.MemoryGB
		}
	}
	return admissible
}
