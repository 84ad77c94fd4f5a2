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

// Unit is the atomic schedulable entity: one (task, lemma, alias) triple
// with resolved resources. A Unit is immutable once returned by Expand.
type Unit struct {
	ID                string
	TaskName          string
	Alias             string
	ExecutablePath    string
	TheoryFile        string
	Lemma             string
	Options           []string
	PreprocessorFlags []string
	Cores             int
	MemoryGB          int
	TimeoutS          int
	OutputFile        string
	TracesDir         string

	// CoresCapped/MemoryCapped record whether task-level resolution capped
	// this unit's resources against the global ceiling (§3); a lemma-level
	// override that escalates past the ceiling leaves these false.
	CoresCapped  bool
	MemoryCapped bool
}
