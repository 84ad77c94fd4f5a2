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

// Package unit expands a validated recipe into the flat list of Units the
// scheduler consumes.
//
// Expansion applies the inheritance contract (global defaults ← task ←
// lemma) over resources, and full replacement (never merge) over aliases,
// options, and preprocessor flags. A Task without an explicit lemma filter
// gets one Unit per lemma discovered by pkg/lemma; a Task with a filter gets
// one Unit per (discovered lemma, LemmaSpec) substring match, per effective
// alias.
//
// Units are immutable once built and carry everything the scheduler and
// supervisor need to run them without consulting the Recipe again.
package unit
