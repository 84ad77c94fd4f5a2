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
	"sort"
	"strings"

	"github.com/NVIDIA/tamarin-batch/pkg/unit"
)

// Policy orders a snapshot of the pending set before admission is
// attempted. It must not mutate its input.
type Policy interface {
	Order(pending []unit.Unit) []unit.Unit
}

// FIFO preserves submission order.
type FIFO struct{}

// Order returns a copy of pending, unchanged in order.
func (FIFO) Order(pending []unit.Unit) []unit.Unit {
	return append([]unit.Unit(nil), pending...)
}

// SJF (shortest job first) orders by ascending cores+memory_gb demand.
type SJF struct{}

func (SJF) Order(pending []unit.Unit) []unit.Unit {
	return sortedByDemand(pending, true)
}

// LJF (largest job first) orders by descending cores+memory_gb demand.
type LJF struct{}

func (LJF) Order(pending []unit.Unit) []unit.Unit {
	return sortedByDemand(pending, false)
}

func sortedByDemand(pending []unit.Unit, ascending bool) []unit.Unit {
	ordered := append([]unit.Unit(nil), pending...)
	sort.SliceStable(ordered, func(i, j int) bool {
		di := ordered[i].Cores + ordered[i].MemoryGB
		dj := ordered[j].Cores + ordered[j].MemoryGB
		if ascending {
			return di < dj
		}
		return di > dj
	})
	return ordered
}

// ParsePolicy resolves a recipe/CLI-level policy name ("fifo", "sjf",
// "ljf", case-insensitive) to a Policy. An unrecognized name defaults to
// FIFO.
func ParsePolicy(name string) Policy {
	switch strings.ToLower(name) {
	case "sjf":
		return SJF{}
	case "ljf":
		return LJF{}
	default:
		return FIFO{}
	}
}
